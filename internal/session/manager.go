package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Transport is the enclosing session mechanism: a server-side store of
// serialized state blobs keyed by user id.
type Transport interface {
	// GetSessionBlob returns the stored blob, or nil if none exists.
	GetSessionBlob(ctx context.Context, userID string) ([]byte, error)

	// PutSessionBlob stores the blob, replacing any previous one.
	PutSessionBlob(ctx context.Context, userID string, blob []byte) error

	// DeleteSessionBlob removes the stored blob.
	DeleteSessionBlob(ctx context.Context, userID string) error
}

// Manager owns the per-actor session state and enforces the byte budget.
// Both thresholds must sit below whatever limit the transport itself
// enforces; the soft threshold triggers slot truncation, the hard one
// evicts all content slots.
type Manager struct {
	transport Transport
	softLimit int
	hardLimit int
}

// NewManager creates a session manager over the given transport.
func NewManager(transport Transport, softLimit, hardLimit int) *Manager {
	return &Manager{
		transport: transport,
		softLimit: softLimit,
		hardLimit: hardLimit,
	}
}

// Load retrieves the actor's session state, returning a fresh empty state
// when none is stored. A corrupted blob is discarded with a log entry rather
// than failing the request.
func (m *Manager) Load(ctx context.Context, userID string) (*State, error) {
	blob, err := m.transport.GetSessionBlob(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if blob == nil {
		return &State{UserID: userID}, nil
	}

	var state State
	if err := json.Unmarshal(blob, &state); err != nil {
		slog.Warn("discarding corrupted session blob", "user_id", userID, "error", err)
		return &State{UserID: userID}, nil
	}
	if state.UserID == "" {
		state.UserID = userID
	}
	return &state, nil
}

// Save enforces the budget and writes the state back to the transport.
func (m *Manager) Save(ctx context.Context, userID string, state *State) error {
	m.EnforceBudget(state)

	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("serialize session: %w", err)
	}
	if err := m.transport.PutSessionBlob(ctx, userID, blob); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Delete removes the actor's stored session state.
func (m *Manager) Delete(ctx context.Context, userID string) error {
	if err := m.transport.DeleteSessionBlob(ctx, userID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// SerializedSize returns the byte size of the serialized state, or -1 when
// serialization fails.
func (m *Manager) SerializedSize(state *State) int {
	blob, err := json.Marshal(state)
	if err != nil {
		return -1
	}
	return len(blob)
}

// EnforceBudget applies the two-stage shrink/evict policy. Above the soft
// threshold every content slot is truncated or reduced; if the state still
// exceeds the hard threshold all content slots are evicted. Entitlement and
// identity slots are never removed. A serialization failure is logged and
// swallowed: a budget check must never block the primary request.
func (m *Manager) EnforceBudget(state *State) {
	size := m.SerializedSize(state)
	if size < 0 {
		slog.Error("session budget check failed to serialize state", "user_id", state.UserID)
		return
	}

	if size > m.softLimit {
		slog.Warn("session approaching size limit, truncating slots",
			"user_id", state.UserID, "size_bytes", size, "soft_limit", m.softLimit)
		state.shrink()
		size = m.SerializedSize(state)
	}

	if size > m.hardLimit {
		slog.Error("session exceeds size limit, evicting content slots",
			"user_id", state.UserID, "size_bytes", size, "hard_limit", m.hardLimit)
		state.ClearBeforeNewLargeWrite()
	}
}
