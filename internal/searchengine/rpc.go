package searchengine

import (
	"context"
	"encoding/json"

	"github.com/cord19search/searchplatform/pkg/grpc"
	"github.com/cord19search/searchplatform/pkg/proto"
)

// RegisterRPC exposes EngineStats and Reload over the internal
// JSON-over-TCP RPC server, so the gateway can query engine health
// without a public HTTP round trip.
func RegisterRPC(server *grpc.Server, engine *Engine) {
	server.Register("Engine.Stats", func(_ context.Context, _ json.RawMessage) (any, error) {
		return proto.EngineStatsResponse{
			SegmentCount:    int32(engine.SegmentCount()),
			SemanticEnabled: engine.SemanticEnabled(),
		}, nil
	})
	server.Register("Engine.Reload", func(_ context.Context, _ json.RawMessage) (any, error) {
		ok := engine.Reload()
		return proto.ReloadResponse{Success: ok, SegmentCount: int32(engine.SegmentCount())}, nil
	})
}
