package workspace

import (
	"context"
	"errors"
	"strings"

	"pointer/internal/apply"
	"pointer/internal/chat"
	"pointer/internal/client"
	"pointer/internal/logging"
	"pointer/internal/postprocess"
	"pointer/internal/prompt"
	"pointer/internal/snapshot"
	"pointer/internal/undo"
	"pointer/internal/verify"
)

// StaleEditText is shown when the file moved on while the reply was computed.
const StaleEditText = "The file changed while I was working on it, so the edit was not applied. Please ask again."

// Apply outcome labels.
const (
	outcomeApplied     = "applied"
	outcomeNoOp        = "noop"
	outcomeManual      = "manual"
	outcomeInvalid     = "invalid"
	outcomeStale       = "stale"
	outcomeUnsupported = "unsupported_format"
)

// TurnRequest is one user submission.
type TurnRequest struct {
	Text        string `json:"text"`
	CurrentFile string `json:"currentFile"`
	Provider    string `json:"provider"`
	Reasoning   bool   `json:"reasoning"`
}

// TurnResult describes what a turn did.
type TurnResult struct {
	User         chat.Message   `json:"user"`
	Reply        chat.Message   `json:"reply"`
	Strategy     string         `json:"strategy"`
	Outcome      string         `json:"outcome"`
	Verification string         `json:"verification,omitempty"`
	Summary      *apply.Summary `json:"summary,omitempty"`
	File         *snapshot.File `json:"file,omitempty"`
	DiffDetected bool           `json:"diffDetected"`
	// Err is the pipeline failure behind an error reply, if any.
	Err error `json:"-"`
}

// Turn runs one chat turn end to end. Pipeline failures (gateway, invalid
// range, stale file) are reported as an error reply in the result with Err
// set; the returned error is reserved for turns that did not run at all
// (ErrEmptyMessage, chat.ErrBusy) or whose reply was discarded
// (chat.ErrOutOfOrder, context cancellation).
func (w *Workspace) Turn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	ticket, err := w.session.Begin(ctx, w.overlap)
	if err != nil {
		return nil, err
	}
	persistCtx := context.WithoutCancel(ctx)
	defer w.persistSession(persistCtx)

	res := &TurnResult{User: w.session.AddUser(text), Strategy: apply.KindNoOp.String()}

	// the version the edit is computed against
	current := req.CurrentFile
	base, baseErr := w.snap.Get(current)
	exists := baseErr == nil
	if exists {
		current = base.Path
	}

	payload := w.builder.Build(w.session.History(), prompt.FromSnapshot(w.snap, current))
	resp, err := w.gateway.Complete(ticket.Ctx, client.Request{
		Provider:          req.Provider,
		Messages:          payload.Messages,
		SystemInstruction: payload.SystemInstruction,
		Reasoning:         req.Reasoning,
	})
	if finishErr := w.session.Finish(ticket); finishErr != nil {
		return nil, finishErr
	}
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil, err
		}
		logging.Warn("chat turn failed", "provider", req.Provider, "error", err)
		res.Reply = w.session.AddError(client.UserMessage(err))
		res.Err = err
		return res, nil
	}

	processed := postprocess.Process(resp.Text)
	res.DiffDetected = processed.DiffDetected
	reasoning := ""
	if req.Reasoning {
		reasoning = resp.ReasoningText
	}
	res.Reply = w.session.AddAssistant(processed.DisplayText, processed.CodeBlocks, reasoning)

	ins := apply.ParseInstruction(processed.OriginalText, processed.CodeBlocks, exists)
	res.Strategy = ins.Kind.String()
	switch {
	case ins.Kind == apply.KindNoOp:
		res.Outcome = outcomeNoOp
		w.rec.ObserveApply(res.Strategy, res.Outcome)
		return res, nil
	case !w.autoApply:
		res.Outcome = outcomeManual
		w.rec.ObserveApply(res.Strategy, res.Outcome)
		return res, nil
	}

	if err := w.sleep(ctx, w.applyDelay); err != nil {
		return nil, err
	}
	w.applyInstruction(persistCtx, res, base, ins)
	return res, nil
}

// applyInstruction computes the edit against base and lands it only if the
// file is still at base.Version.
func (w *Workspace) applyInstruction(ctx context.Context, res *TurnResult, base snapshot.File, ins apply.Instruction) {
	applied, err := apply.Apply(base.Content, ins)
	if err != nil {
		res.Outcome = outcomeInvalid
		res.Err = err
		res.Reply = w.session.AddError(err.Error())
		w.rec.ObserveApply(res.Strategy, res.Outcome)
		return
	}

	content := applied.Content
	if ins.Kind == apply.KindReplaceRange && w.verify {
		out := verify.VerifyAndRepair(content, ins.Start, ins.End, ins.Body, w.repair)
		res.Verification = out.Label()
		w.rec.ObserveVerification(res.Verification)
		if out.Repaired {
			logging.Info("re-anchored line range edit", "path", base.Path, "start", ins.Start, "end", ins.End)
			content = out.Content
		}
	}

	f, err := w.snap.Update(base.Path, base.Version, content)
	if err != nil {
		res.Outcome = outcomeStale
		res.Err = err
		res.Reply = w.session.AddError(StaleEditText)
		w.rec.ObserveApply(res.Strategy, res.Outcome)
		logging.Warn("discarding edit computed against an old version", "path", base.Path, "error", err)
		return
	}

	summary := apply.Summarize(base.Content, content)
	res.Outcome = outcomeApplied
	res.File = &f
	res.Summary = &summary
	w.rec.ObserveApply(res.Strategy, res.Outcome)
	w.undo.Record(undo.NewFileChange(f.Path, "assistant", res.Strategy, base.Content, content, f.Version))
	w.persistSnapshot(ctx)

	logging.Info("applied assistant edit", "path", f.Path, "strategy", res.Strategy,
		"added", summary.LinesAdded, "removed", summary.LinesRemoved)
}
