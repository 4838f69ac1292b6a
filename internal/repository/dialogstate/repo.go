package dialogstate

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/converse/internal/domain"
	"github.com/kailas-cloud/converse/internal/domain/dialog"
)

// store is the consumer interface for dialog state persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Repo persists TurnState per conversation and dialog instance. State keys are
// partitioned by conversation+instance, so conversations cannot interfere.
type Repo struct {
	store store
	ttl   time.Duration
}

// New creates a dialog state repository. ttl bounds how long an idle dialog
// instance survives; 0 disables expiry.
func New(s store, ttl time.Duration) *Repo {
	return &Repo{store: s, ttl: ttl}
}

// Load reads the state record for a dialog instance. A missing key yields a
// fresh empty state, not an error.
func (r *Repo) Load(ctx context.Context, conversationID, instanceID string) (dialog.TurnState, error) {
	m, err := r.store.HGetAll(ctx, stateKey(conversationID, instanceID))
	if err != nil {
		return dialog.TurnState{}, fmt.Errorf("hgetall dialog state %s: %w", conversationID, err)
	}
	if len(m) == 0 {
		return dialog.NewTurnState(), nil
	}
	return stateFromHash(m)
}

// Save writes the state record back and refreshes the TTL.
func (r *Repo) Save(ctx context.Context, conversationID, instanceID string, state dialog.TurnState) error {
	key := stateKey(conversationID, instanceID)

	fields, err := stateToHash(state)
	if err != nil {
		return err
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset dialog state %s: %w", conversationID, err)
	}
	if r.ttl > 0 {
		if err := r.store.Expire(ctx, key, r.ttl, false); err != nil {
			return fmt.Errorf("expire dialog state %s: %w", conversationID, err)
		}
	}
	return nil
}

// Clear destroys the state record when the dialog instance ends.
func (r *Repo) Clear(ctx context.Context, conversationID, instanceID string) error {
	if err := r.store.Del(ctx, stateKey(conversationID, instanceID)); err != nil {
		return fmt.Errorf("del dialog state %s: %w", conversationID, err)
	}
	return nil
}

// Redis key pattern: converse:dialog:{conversationID}:{instanceID}

func stateKey(conversationID, instanceID string) string {
	return fmt.Sprintf("%sdialog:%s:%s", domain.KeyPrefix, conversationID, instanceID)
}
