package scan

import (
	"context"
	"sync"
	"sync/atomic"

	"violence-scanner/internal/domain"
)

// Session is one submit-to-outcome attempt. It owns its cancellation handle
// and the reason flag, so separate sessions never share either.
type Session struct {
	ID    string
	Video domain.Video

	ctx    context.Context
	cancel context.CancelFunc

	userCancelled atomic.Bool
	superseded    atomic.Bool

	once sync.Once
	done chan struct{}
}

func newSession(id string, video domain.Video) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:     id,
		Video:  video,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Done is closed once the session has been finalized.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// CancelRequested reports whether the user asked to stop this session.
func (s *Session) CancelRequested() bool {
	return s.userCancelled.Load()
}

// requestCancel records the user-initiated reason before aborting the call.
func (s *Session) requestCancel() {
	s.userCancelled.Store(true)
	s.cancel()
}

// supersede marks the session's outcome as stale and aborts it.
func (s *Session) supersede() {
	s.superseded.Store(true)
	s.requestCancel()
}

// release discards the cancellation handle and signals completion.
func (s *Session) release() {
	s.once.Do(func() {
		s.cancel()
		close(s.done)
	})
}

// outcome is what a finished classifier call turns into.
type outcome struct {
	result *domain.Result
	errMsg string
	notice string
}

// resolve maps the call's return values onto a terminal outcome. A failure
// after a user cancel is a stop, whatever error shape the transport produced.
func (s *Session) resolve(result domain.Result, err error) outcome {
	switch {
	case err == nil:
		r := result
		return outcome{result: &r}
	case s.CancelRequested():
		return outcome{result: domain.StoppedResult()}
	default:
		msg := serviceDetail(err)
		return outcome{errMsg: msg, notice: msg}
	}
}
