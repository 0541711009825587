package searchengine

import (
	"testing"
	"time"

	"github.com/cord19search/searchplatform/pkg/grpc"
	"github.com/cord19search/searchplatform/pkg/proto"
)

func startRPCTestServer(t *testing.T, engine *Engine) string {
	t.Helper()
	s := grpc.NewServer()
	RegisterRPC(s, engine)
	go s.Serve("127.0.0.1:0")
	t.Cleanup(s.Stop)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if addr := s.Addr(); addr != "" {
			return addr
		}
		if time.Now().After(deadline) {
			t.Fatal("rpc server did not start listening in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRegisterRPCEngineStats(t *testing.T) {
	engine := New(t.TempDir(), "")
	engine.Reload()
	addr := startRPCTestServer(t, engine)

	client, err := grpc.Dial(addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	var resp proto.EngineStatsResponse
	if err := client.Call("Engine.Stats", proto.EngineStatsRequest{}, &resp); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if resp.SegmentCount != 0 {
		t.Errorf("SegmentCount = %d, want 0 for an engine with no segments loaded", resp.SegmentCount)
	}
}

func TestRegisterRPCEngineReload(t *testing.T) {
	engine := New(t.TempDir(), "")
	addr := startRPCTestServer(t, engine)

	client, err := grpc.Dial(addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	var resp proto.ReloadResponse
	if err := client.Call("Engine.Reload", proto.ReloadRequest{}, &resp); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if resp.Success {
		t.Error("Success = true, want false when the manifest directory is empty")
	}
}
