package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func startTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	s := NewServer()
	s.Register("Echo.Say", func(ctx context.Context, req json.RawMessage) (any, error) {
		var params struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(req, &params); err != nil {
			return nil, err
		}
		return map[string]string{"echo": params.Message}, nil
	})
	s.Register("Echo.Fail", func(ctx context.Context, req json.RawMessage) (any, error) {
		return nil, errors.New("intentional failure")
	})

	go s.Serve("127.0.0.1:0")
	t.Cleanup(s.Stop)

	deadline := time.Now().Add(2 * time.Second)
	for s.listener == nil {
		if time.Now().After(deadline) {
			t.Fatal("server did not start listening in time")
		}
		time.Sleep(time.Millisecond)
	}
	return s, s.listener.Addr().String()
}

func TestClientCallRoundTrip(t *testing.T) {
	_, addr := startTestServer(t)

	client, err := Dial(addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	var result struct {
		Echo string `json:"echo"`
	}
	if err := client.Call("Echo.Say", map[string]string{"message": "hello"}, &result); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result.Echo != "hello" {
		t.Errorf("result.Echo = %q, want hello", result.Echo)
	}
}

func TestClientCallUnknownMethod(t *testing.T) {
	_, addr := startTestServer(t)

	client, err := Dial(addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	err = client.Call("Nonexistent.Method", nil, nil)
	if err == nil {
		t.Fatal("expected an error for an unknown method")
	}
}

func TestClientCallHandlerError(t *testing.T) {
	_, addr := startTestServer(t)

	client, err := Dial(addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	err = client.Call("Echo.Fail", nil, nil)
	if err == nil {
		t.Fatal("expected an error surfaced from the handler")
	}
}

func TestServerRegisterTracksMethodCount(t *testing.T) {
	s := NewServer()
	if s.MethodCount() != 0 {
		t.Fatalf("MethodCount = %d, want 0", s.MethodCount())
	}
	s.Register("A.B", func(ctx context.Context, req json.RawMessage) (any, error) { return nil, nil })
	s.Register("A.C", func(ctx context.Context, req json.RawMessage) (any, error) { return nil, nil })
	if s.MethodCount() != 2 {
		t.Errorf("MethodCount = %d, want 2", s.MethodCount())
	}
}

func TestDialUnreachableAddrFails(t *testing.T) {
	// Port 1 is a privileged, essentially never-listening port; Dial should
	// fail quickly rather than hang.
	done := make(chan error, 1)
	go func() {
		_, err := Dial("127.0.0.1:1")
		done <- err
	}()
	select {
	case err := <-done:
		if err == nil {
			t.Error("expected Dial to a closed port to fail")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Dial did not return within 5s")
	}
}
