package chat

import (
	"context"
	"errors"
	"sync"

	"pointer/internal/logging"
)

var (
	ErrBusy       = errors.New("a request is already in progress for this conversation")
	ErrOutOfOrder = errors.New("response arrived after a newer request; discarded")
)

// OverlapPolicy decides what Begin does while a request is outstanding.
type OverlapPolicy string

const (
	// OverlapReject refuses the new request with ErrBusy.
	OverlapReject OverlapPolicy = "reject"
	// OverlapSupersede cancels the outstanding request and starts the new one.
	OverlapSupersede OverlapPolicy = "supersede"
)

// Ticket tags one outbound request with its sequence number.
type Ticket struct {
	Seq    uint64
	Ctx    context.Context
	cancel context.CancelFunc
}

// Cancel aborts the request.
func (t *Ticket) Cancel() { t.cancel() }

type sequencer struct {
	mu      sync.Mutex
	last    uint64
	current *Ticket
}

// Begin starts a request. Only one may be outstanding per session.
func (s *Session) Begin(ctx context.Context, policy OverlapPolicy) (*Ticket, error) {
	q := &s.seq
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.current != nil {
		if policy != OverlapSupersede {
			return nil, ErrBusy
		}
		logging.Info("superseding in-flight chat request", "session", s.ID, "seq", q.current.Seq)
		q.current.cancel()
		q.current = nil
	}

	q.last++
	tctx, cancel := context.WithCancel(ctx)
	t := &Ticket{Seq: q.last, Ctx: tctx, cancel: cancel}
	q.current = t
	return t, nil
}

// Finish ends a request. It returns ErrOutOfOrder when a newer request has been
// started since, in which case the response must not be applied.
func (s *Session) Finish(t *Ticket) error {
	q := &s.seq
	q.mu.Lock()
	defer q.mu.Unlock()

	t.cancel()
	if q.current == t {
		q.current = nil
	}
	if t.Seq != q.last {
		logging.Warn("discarding out-of-order chat response", "session", s.ID, "seq", t.Seq, "latest", q.last)
		return ErrOutOfOrder
	}
	return nil
}

// InFlight reports whether a request is outstanding.
func (s *Session) InFlight() bool {
	q := &s.seq
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current != nil
}

func (q *sequencer) cancelAll() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current != nil {
		q.current.cancel()
		q.current = nil
	}
	// invalidate tickets issued before the cancel
	q.last++
}
