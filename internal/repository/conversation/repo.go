package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/converse/internal/db"
	"github.com/kailas-cloud/converse/internal/domain"
)

// store is the consumer interface for conversation bookkeeping (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Repo tracks the active dialog instance per conversation. At most one dialog
// instance is live for a conversation at a time.
type Repo struct {
	store store
	ttl   time.Duration
}

// New creates a conversation repository. ttl bounds idle conversations;
// 0 disables expiry.
func New(s store, ttl time.Duration) *Repo {
	return &Repo{store: s, ttl: ttl}
}

// ActiveInstance returns the live dialog instance id for a conversation.
// ok is false when no dialog is active.
func (r *Repo) ActiveInstance(ctx context.Context, conversationID string) (string, bool, error) {
	data, err := r.store.Get(ctx, instanceKey(conversationID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get active instance %s: %w", conversationID, err)
	}
	return string(data), true, nil
}

// SetActiveInstance records the live dialog instance for a conversation.
func (r *Repo) SetActiveInstance(ctx context.Context, conversationID, instanceID string) error {
	key := instanceKey(conversationID)
	var err error
	if r.ttl > 0 {
		err = r.store.SetWithTTL(ctx, key, []byte(instanceID), r.ttl)
	} else {
		err = r.store.Set(ctx, key, []byte(instanceID))
	}
	if err != nil {
		return fmt.Errorf("set active instance %s: %w", conversationID, err)
	}
	return nil
}

// ClearActiveInstance removes the pointer when the dialog instance ends.
func (r *Repo) ClearActiveInstance(ctx context.Context, conversationID string) error {
	if err := r.store.Del(ctx, instanceKey(conversationID)); err != nil {
		return fmt.Errorf("del active instance %s: %w", conversationID, err)
	}
	return nil
}

// Redis key pattern: converse:conversation:{conversationID}:instance

func instanceKey(conversationID string) string {
	return fmt.Sprintf("%sconversation:%s:instance", domain.KeyPrefix, conversationID)
}
