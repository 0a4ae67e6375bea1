package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"realtime-service/internal/models"
)

// ErrCacheMiss is returned when no preview list is cached for the user.
var ErrCacheMiss = errors.New("cache miss")

const (
	previewKeyPrefix = "previews"
	previewTTL       = 5 * time.Minute
)

// Previews caches the conversation-list view per user in Redis. The database
// stays authoritative; entries are dropped whenever a new message touches
// either participant's list.
type Previews struct {
	cli *redis.Client
}

// Connect dials Redis and pings it to verify the connection.
func Connect(ctx context.Context, addr, password string) (*Previews, error) {
	cli := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := cli.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Previews{cli: cli}, nil
}

// NewPreviews wraps an existing client, used by tests.
func NewPreviews(cli *redis.Client) *Previews {
	return &Previews{cli: cli}
}

// Get returns the cached preview list for the user.
func (p *Previews) Get(ctx context.Context, userID int) ([]models.ConversationPreview, error) {
	raw, err := p.cli.Get(ctx, previewKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get previews: %w", err)
	}

	var previews []models.ConversationPreview
	if err := json.Unmarshal([]byte(raw), &previews); err != nil {
		return nil, fmt.Errorf("decode previews: %w", err)
	}
	return previews, nil
}

// Set stores the preview list for the user.
func (p *Previews) Set(ctx context.Context, userID int, previews []models.ConversationPreview) error {
	raw, err := json.Marshal(previews)
	if err != nil {
		return fmt.Errorf("encode previews: %w", err)
	}
	if err := p.cli.Set(ctx, previewKey(userID), raw, previewTTL).Err(); err != nil {
		return fmt.Errorf("set previews: %w", err)
	}
	return nil
}

// Invalidate drops the cached lists of every affected user.
func (p *Previews) Invalidate(ctx context.Context, userIDs ...int) error {
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = previewKey(id)
	}
	if err := p.cli.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate previews: %w", err)
	}
	return nil
}

func previewKey(userID int) string {
	return fmt.Sprintf("%s:%d", previewKeyPrefix, userID)
}
