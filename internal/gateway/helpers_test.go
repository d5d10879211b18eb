package gateway_test

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/petasbytes/cybercog/internal/gateway"
)

// step is one scripted reply: an HTTP status and body, or a transport error.
type step struct {
	status int
	body   string
	err    error
}

// fakeTransport replays steps in order and records each request body. The
// last step repeats once the script runs out.
type fakeTransport struct {
	mu     sync.Mutex
	steps  []step
	bodies [][]byte
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	b, _ := io.ReadAll(req.Body)
	_ = req.Body.Close()

	f.mu.Lock()
	n := len(f.bodies)
	f.bodies = append(f.bodies, b)
	s := f.steps[min(n, len(f.steps)-1)]
	f.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	resp := &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(bytes.NewReader([]byte(s.body))),
		Header:     make(http.Header),
		Request:    req,
	}
	resp.Header.Set("Content-Type", "application/json")
	return resp, nil
}

func (f *fakeTransport) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bodies)
}

func (f *fakeTransport) body(i int) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[i]
}

const (
	textReply = `{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-opus-20240229",
		"content":[{"type":"text","text":"hello there"}],
		"stop_reason":"end_turn","usage":{"input_tokens":12,"output_tokens":3}}`
	toolReply = `{"id":"msg_2","type":"message","role":"assistant","model":"claude-3-opus-20240229",
		"content":[{"type":"text","text":"checking"},{"type":"tool_use","id":"tu_1","name":"read_file","input":{"path":"a.txt"}}],
		"stop_reason":"tool_use","usage":{"input_tokens":20,"output_tokens":9}}`
	serverError = `{"type":"error","error":{"type":"api_error","message":"overloaded"}}`
	badRequest  = `{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`
)

var errReset = errors.New("connection reset by peer")

func fastRetry() gateway.RetryPolicy {
	return gateway.RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func newGateway(t *testing.T, ft *fakeTransport, mutate ...func(*gateway.Options)) *gateway.Anthropic {
	t.Helper()
	opts := gateway.Options{
		Retry:      fastRetry(),
		HTTPClient: newClient(ft),
	}
	for _, m := range mutate {
		m(&opts)
	}
	return gateway.NewAnthropic("test-key", opts)
}

func newClient(ft *fakeTransport) *http.Client {
	return &http.Client{Transport: ft}
}
