// Package workspace is the application state object: the project snapshot,
// the conversation, and the pipeline that turns a chat turn into a file edit.
package workspace

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"pointer/internal/chat"
	"pointer/internal/client"
	"pointer/internal/config"
	"pointer/internal/logging"
	"pointer/internal/prompt"
	"pointer/internal/snapshot"
	"pointer/internal/store"
	"pointer/internal/undo"
	"pointer/internal/verify"
)

var ErrEmptyMessage = errors.New("message is empty")

// Completer is the completion gateway as the workspace sees it.
type Completer interface {
	Complete(ctx context.Context, req client.Request) (*client.Response, error)
}

// Recorder receives apply and verification outcomes.
type Recorder interface {
	ObserveApply(strategy, outcome string)
	ObserveVerification(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveApply(string, string) {}
func (nopRecorder) ObserveVerification(string) {}

// Options wires a Workspace. Store and Recorder are optional.
type Options struct {
	Gateway  Completer
	Store    store.Store
	Recorder Recorder
	Config   *config.Config
}

// Workspace owns one project and one conversation.
type Workspace struct {
	snap    *snapshot.Snapshot
	session *chat.Session
	gateway Completer
	store   store.Store
	rec     Recorder
	undo    *undo.Manager
	builder *prompt.Builder

	overlap    chat.OverlapPolicy
	autoApply  bool
	applyDelay time.Duration
	verify     bool
	repair     verify.RepairMode

	// sleep waits out the apply delay; tests replace it.
	sleep func(ctx context.Context, d time.Duration) error

	// persistMu orders store writes so an older state never overwrites a newer one.
	persistMu sync.Mutex
}

// New creates a workspace over snap.
func New(snap *snapshot.Snapshot, opts Options) *Workspace {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	rec := opts.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}

	overlap := chat.OverlapPolicy(strings.ToLower(cfg.Chat.Overlap))
	if overlap != chat.OverlapSupersede {
		overlap = chat.OverlapReject
	}

	return &Workspace{
		snap:       snap,
		session:    chat.NewSession(cfg.Chat.MaxMessages),
		gateway:    opts.Gateway,
		store:      opts.Store,
		rec:        rec,
		undo:       undo.NewManager(snap, undo.DefaultMaxChanges),
		builder:    prompt.NewBuilder(prompt.OptionsFromConfig(cfg.Prompt)),
		overlap:    overlap,
		autoApply:  cfg.Apply.AutoApply,
		applyDelay: cfg.Apply.Delay,
		verify:     cfg.Verify.Enabled,
		repair:     verify.ParseRepairMode(cfg.Verify.Repair),
		sleep:      sleepContext,
	}
}

// Snapshot returns the project.
func (w *Workspace) Snapshot() *snapshot.Snapshot { return w.snap }

// Session returns the conversation.
func (w *Workspace) Session() *chat.Session { return w.session }

// Messages returns the transcript.
func (w *Workspace) Messages() []chat.Message { return w.session.Messages() }

// ClearHistory drops the transcript, cancelling any turn in flight.
func (w *Workspace) ClearHistory(ctx context.Context) {
	w.session.Clear()
	w.persistSession(ctx)
}

// MarkTyped ends the typing animation of a message.
func (w *Workspace) MarkTyped(id string) bool { return w.session.MarkTyped(id) }

// Suggestion returns the quick prompt for action against currentFile.
func (w *Workspace) Suggestion(action, currentFile string) (string, error) {
	hasContent := strings.TrimSpace(w.snap.Content(currentFile)) != ""
	return chat.Suggestion(action, currentFile, hasContent)
}

// Restore loads the last saved project and the most recent conversation.
func (w *Workspace) Restore(ctx context.Context) error {
	if w.store == nil {
		return nil
	}

	export, err := w.store.LoadSnapshot(ctx)
	switch {
	case err == nil:
		n, err := w.snap.Import(export)
		if err != nil {
			return err
		}
		logging.Info("restored project snapshot", "files", n)
	case !errors.Is(err, store.ErrNotFound):
		return err
	}

	infos, err := w.store.ListSessions(ctx)
	if err != nil || len(infos) == 0 {
		return err
	}
	state, err := w.store.LoadSession(ctx, infos[0].ID)
	if err != nil {
		return err
	}
	w.session.RestoreFromState(state)
	logging.Info("restored chat session", "session", state.ID, "messages", len(state.Messages))
	return nil
}

func (w *Workspace) persistSession(ctx context.Context) {
	if w.store == nil {
		return
	}
	w.persistMu.Lock()
	defer w.persistMu.Unlock()

	if err := w.store.SaveSession(ctx, w.session.GetState()); err != nil {
		logging.Warn("failed to save chat session", "session", w.session.ID, "error", err)
	}
}

func (w *Workspace) persistSnapshot(ctx context.Context) {
	if w.store == nil {
		return
	}
	w.persistMu.Lock()
	defer w.persistMu.Unlock()

	if err := w.store.SaveSnapshot(ctx, w.snap.Export()); err != nil {
		logging.Warn("failed to save project snapshot", "error", err)
	}
}

// PersistSnapshot saves the project now. File routes call it after user edits.
func (w *Workspace) PersistSnapshot(ctx context.Context) { w.persistSnapshot(ctx) }

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
