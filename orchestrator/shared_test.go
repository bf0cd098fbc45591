package orchestrator

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"
)

// fakeDoer plays back a script of responses, one per request. When the script
// runs out the last step repeats
type fakeDoer struct {
	mu    sync.Mutex
	steps []step
	calls int

	// requests records every request URL seen, in order
	requests []string

	// authHeaders records the Authorization header of every request
	authHeaders []string
}

type step struct {
	status int
	body   string
	err    error
	delay  time.Duration
}

func newFakeDoer(steps ...step) *fakeDoer {
	return &fakeDoer{steps: steps}
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	index := f.calls
	if index >= len(f.steps) {
		index = len(f.steps) - 1
	}
	s := f.steps[index]
	f.calls++
	f.requests = append(f.requests, req.URL.String())
	f.authHeaders = append(f.authHeaders, req.Header.Get("Authorization"))
	f.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(s.delay):
		}
	}

	if s.err != nil {
		return nil, s.err
	}

	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(bytes.NewBufferString(s.body)),
		Header:     make(http.Header),
	}, nil
}

func (f *fakeDoer) numCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func ok(body string) step {
	return step{status: http.StatusOK, body: body}
}

func httpError(status int) step {
	return step{status: status, body: "error"}
}

func transportError() step {
	return step{err: errors.New("connection refused")}
}

// newTestOrchestrator builds an orchestrator with fast retries so tests do
// not sit in backoff sleeps
func newTestOrchestrator(doer Doer) *Orchestrator {
	return New(Options{
		Client:      doer,
		BackoffBase: time.Millisecond,
		BackoffCap:  5 * time.Millisecond,
	})
}
