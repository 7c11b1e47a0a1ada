package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

var isWindows = runtime.GOOS == "windows"

// ExpandPath resolves a leading ~ to the user's home directory and makes the
// result absolute. A bare "~" becomes the home directory itself; "~/x" becomes
// home/x. Anything else (including "~user" forms) is left alone apart from the
// absolute conversion. Works on Windows too, where ~ has no shell meaning.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}

	if home, _ := os.UserHomeDir(); home != "" && strings.HasPrefix(path, "~") {
		rest := path[1:]
		switch {
		case rest == "" || rest == "/" || rest == `\`:
			path = home
		case strings.HasPrefix(rest, "/") || strings.HasPrefix(rest, `\`):
			path = filepath.Join(home, rest[1:])
		}
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
	}

	return path
}

// InUserConfigDirectory returns an absolute path to a good location for user-specific config
// files, joined with subPath. Ex:
//   - InUserConfigDirectory("driftline/config.toml") -> "~/.config/driftline/config.toml" on OSX or Linux (but where ~ is expanded).
//   - InUserConfigDirectory("driftline/config.toml") -> "%USERPROFILE%/AppData/Local/driftline/config.toml" on Windows (but where %USERPROFILE% is expanded).
func InUserConfigDirectory(subPath string) string {
	if isWindows {
		return filepath.Join(ExpandPath("~/AppData/Local"), subPath)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, subPath)
	}
	return filepath.Join(ExpandPath("~/.config"), subPath)
}
