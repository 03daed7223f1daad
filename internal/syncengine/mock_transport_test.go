package syncengine

import (
	"context"
	"sync"

	"github.com/clinisync/core/internal/protocol"
	"github.com/google/uuid"
)

// MockTransport backs the engine's own tests without a live collaborator
// to talk to.
type MockTransport struct {
	mu sync.Mutex

	PushErr error
	PullErr error

	PushFunc     func(protocol.PushRequest) protocol.PushResponse
	PullFunc     func(protocol.PullRequest) protocol.PullResponse
	FullSyncFunc func(protocol.FullSyncRequest) protocol.PullResponse

	PushCalls []protocol.PushRequest
	PullCalls []protocol.PullRequest
}

func (m *MockTransport) Push(ctx context.Context, req protocol.PushRequest) (protocol.PushResponse, error) {
	m.mu.Lock()
	m.PushCalls = append(m.PushCalls, req)
	m.mu.Unlock()

	if m.PushErr != nil {
		return protocol.PushResponse{}, m.PushErr
	}
	if m.PushFunc != nil {
		return m.PushFunc(req), nil
	}

	acked := make([]uuid.UUID, len(req.Changes))
	for i, c := range req.Changes {
		acked[i] = c.ID
	}
	return protocol.PushResponse{Acknowledged: acked, ServerTime: 0}, nil
}

func (m *MockTransport) Pull(ctx context.Context, req protocol.PullRequest) (protocol.PullResponse, error) {
	m.mu.Lock()
	m.PullCalls = append(m.PullCalls, req)
	m.mu.Unlock()

	if m.PullErr != nil {
		return protocol.PullResponse{}, m.PullErr
	}
	if m.PullFunc != nil {
		return m.PullFunc(req), nil
	}
	return protocol.PullResponse{ServerTime: "1"}, nil
}

func (m *MockTransport) FullSync(ctx context.Context, req protocol.FullSyncRequest) (protocol.PullResponse, error) {
	if m.FullSyncFunc != nil {
		return m.FullSyncFunc(req), nil
	}
	return protocol.PullResponse{ServerTime: "1"}, nil
}
