// Package staging coordinates stage/unstage/discard submissions against the external apply contract,
// tracking one state machine per file and rejecting concurrent submissions for the same file.
package staging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/driftline/driftline/internal/unidiff"
)

// Op is what a submission does with the selected lines.
type Op int

const (
	OpStage   Op = iota // worktree diff lines into the index
	OpUnstage           // staged diff lines out of the index
	OpDiscard           // worktree diff lines reverted in the worktree itself
)

func (op Op) String() string {
	switch op {
	case OpStage:
		return "stage"
	case OpUnstage:
		return "unstage"
	case OpDiscard:
		return "discard"
	default:
		return fmt.Sprintf("Op(%d)", int(op))
	}
}

// State is a file's position in the submission lifecycle.
type State int

const (
	Idle State = iota
	Building
	Submitted
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Building:
		return "building"
	case Submitted:
		return "submitted"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var errBusy = errors.New("staging busy")

// IsBusy reports whether err means a submission was rejected because one is already in flight for
// the same file. Busy submissions are rejected, never queued; retry after the in-flight one settles.
func IsBusy(err error) bool {
	return errors.Is(err, errBusy)
}

// Applier is the external apply contract. gitcmd.Service satisfies it.
type Applier interface {
	StagePatch(ctx context.Context, path, body string) error
	UnstagePatch(ctx context.Context, path, body string) error
	DiscardPatch(ctx context.Context, path, body string) error
}

// Event reports a state transition for one file. Err is set only when State is Failed.
type Event struct {
	OpID  uuid.UUID
	Path  string
	Op    Op
	State State
	Err   error
}

// Request describes one submission: which lines of a file's current diff to stage, unstage or
// discard. Hunks must come from the diff matching the operation's direction (worktree diff for
// OpStage/OpDiscard, staged diff for OpUnstage). A nil or empty Selected set means every addition
// and deletion line in Hunks.
type Request struct {
	Path     string
	Op       Op
	Hunks    []unidiff.Hunk
	Selected map[unidiff.LineID]bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithNotify installs a callback invoked synchronously after every state transition. It must be
// fast and must not call back into the Orchestrator for the same file.
func WithNotify(fn func(Event)) Option {
	return func(o *Orchestrator) { o.notify = fn }
}

// WithLogger sets the transition logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// Orchestrator owns the per-file staging state machines. Methods are safe for concurrent use.
type Orchestrator struct {
	applier Applier
	notify  func(Event)
	logger  *slog.Logger

	mu    sync.Mutex
	files map[string]*fileState
}

type fileState struct {
	state State
	opID  uuid.UUID
	err   error
}

// New returns an Orchestrator submitting patches through applier.
func New(applier Applier, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		applier: applier,
		notify:  func(Event) {},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		files:   make(map[string]*fileState),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the file's current lifecycle state.
func (o *Orchestrator) State(path string) State {
	o.mu.Lock()
	defer o.mu.Unlock()
	if fs, ok := o.files[path]; ok {
		return fs.state
	}
	return Idle
}

// Err returns the preserved apply error of a file in the Failed state, nil otherwise.
func (o *Orchestrator) Err(path string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if fs, ok := o.files[path]; ok && fs.state == Failed {
		return fs.err
	}
	return nil
}

// Submit builds a patch from the request and hands it to the applier asynchronously, returning the
// operation id as soon as the submission is in flight. Completion is reported through the notify
// callback. A file with a submission already in flight rejects with a busy error. A request whose
// patch cannot be built (bad line selection) fails synchronously and returns the file to Idle.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (uuid.UUID, error) {
	opID := uuid.New()

	o.mu.Lock()
	fs, ok := o.files[req.Path]
	if !ok {
		fs = &fileState{}
		o.files[req.Path] = fs
	}
	if fs.state == Building || fs.state == Submitted {
		o.mu.Unlock()
		return uuid.Nil, errors.Join(errBusy, fmt.Errorf("%s: %s already in flight", req.Path, fs.opID))
	}
	fs.state = Building
	fs.opID = opID
	fs.err = nil
	o.mu.Unlock()
	o.emit(Event{OpID: opID, Path: req.Path, Op: req.Op, State: Building})

	body, err := buildPatch(req)
	if err != nil {
		o.transition(opID, req, Idle, nil)
		return uuid.Nil, fmt.Errorf("%s %s: %w", req.Op, req.Path, err)
	}

	o.transition(opID, req, Submitted, nil)

	// The underlying process is not cancellable once submitted; a caller that abandons interest
	// must still let it settle before touching the same file again.
	applyCtx := context.WithoutCancel(ctx)
	go func() {
		applyErr := o.apply(applyCtx, req.Path, req.Op, body)
		if applyErr != nil {
			o.logger.Warn("apply failed", "path", req.Path, "op", req.Op.String(), "err", applyErr)
			o.transition(opID, req, Failed, applyErr)
			return
		}
		o.transition(opID, req, Idle, nil)
	}()
	return opID, nil
}

func (o *Orchestrator) apply(ctx context.Context, path string, op Op, body string) error {
	switch op {
	case OpStage:
		return o.applier.StagePatch(ctx, path, body)
	case OpUnstage:
		return o.applier.UnstagePatch(ctx, path, body)
	case OpDiscard:
		return o.applier.DiscardPatch(ctx, path, body)
	default:
		return fmt.Errorf("unknown op %d", int(op))
	}
}

func (o *Orchestrator) transition(opID uuid.UUID, req Request, to State, err error) {
	o.mu.Lock()
	fs := o.files[req.Path]
	fs.state = to
	fs.err = err
	o.mu.Unlock()
	o.emit(Event{OpID: opID, Path: req.Path, Op: req.Op, State: to, Err: err})
}

func (o *Orchestrator) emit(ev Event) {
	o.logger.Debug("staging", "path", ev.Path, "op", ev.Op.String(), "state", ev.State.String(), "err", ev.Err)
	o.notify(ev)
}

// buildPatch serializes the requested line subset. OpUnstage and OpDiscard both un-apply changes, so
// their patches are built for reverse application.
func buildPatch(req Request) (string, error) {
	selected := req.Selected
	if len(selected) == 0 {
		selected = make(map[unidiff.LineID]bool)
		for i := range req.Hunks {
			for _, id := range req.Hunks[i].ChangeIDs() {
				selected[id] = true
			}
		}
	}
	return unidiff.FormatSubset(req.Hunks, selected, req.Op != OpStage)
}
