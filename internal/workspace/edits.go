package workspace

import (
	"context"

	"pointer/internal/apply"
	"pointer/internal/snapshot"
	"pointer/internal/undo"
)

// EditResult describes a manual apply, undo or redo.
type EditResult struct {
	File     snapshot.File  `json:"file"`
	Strategy string         `json:"strategy"`
	Changed  bool           `json:"changed"`
	Summary  *apply.Summary `json:"summary,omitempty"`
}

// ApplyBlock applies a code block the user picked to path. Code that looks like
// a unified diff needs decision "extract" or "abort"; otherwise
// *apply.UnsupportedFormatError is returned and nothing changes.
func (w *Workspace) ApplyBlock(ctx context.Context, path, code, decision string) (*EditResult, error) {
	base, err := w.snap.Get(path)
	if err != nil {
		return nil, err
	}

	applied, err := apply.ApplyManual(base.Content, code, apply.ParseDecision(decision))
	if err != nil {
		w.rec.ObserveApply(apply.KindReplaceWhole.String(), outcomeUnsupported)
		return nil, err
	}
	res := &EditResult{File: base, Strategy: applied.Strategy.String()}
	if !applied.Changed {
		return res, nil
	}

	f, err := w.snap.Update(base.Path, base.Version, applied.Content)
	if err != nil {
		w.rec.ObserveApply(res.Strategy, outcomeStale)
		return nil, err
	}
	w.rec.ObserveApply(res.Strategy, outcomeManual)
	w.undo.Record(undo.NewFileChange(f.Path, "manual", res.Strategy, base.Content, applied.Content, f.Version))
	w.persistSnapshot(context.WithoutCancel(ctx))

	res.File = f
	res.Changed = true
	res.Summary = &applied.Summary
	return res, nil
}

// Undo reverts the latest edit.
func (w *Workspace) Undo(ctx context.Context) (*EditResult, error) {
	return w.step(ctx, w.undo.Undo)
}

// Redo re-applies the latest undone edit.
func (w *Workspace) Redo(ctx context.Context) (*EditResult, error) {
	return w.step(ctx, w.undo.Redo)
}

// History lists the most recent undoable edits, newest first.
func (w *Workspace) History(n int) []undo.FileChange { return w.undo.ListRecent(n) }

func (w *Workspace) step(ctx context.Context, fn func() (*undo.FileChange, error)) (*EditResult, error) {
	change, err := fn()
	if err != nil {
		return nil, err
	}
	f, err := w.snap.Get(change.Path)
	if err != nil {
		return nil, err
	}
	w.persistSnapshot(context.WithoutCancel(ctx))
	return &EditResult{File: f, Strategy: change.Strategy, Changed: true}, nil
}
