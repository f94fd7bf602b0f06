package redis

import (
	"context"
	"fmt"
	"time"

	"circles-platform/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.SelectedCircleStore = (*SelectedCircleStore)(nil)

// SelectedCircleStore keeps each user's currently selected circle in redis
// under a TTL'd key. A missing key reads as "no selection".
type SelectedCircleStore struct {
	client RedisClient
	ttl    time.Duration
}

func NewSelectedCircleStore(client RedisClient, ttl time.Duration) *SelectedCircleStore {
	return &SelectedCircleStore{client: client, ttl: ttl}
}

func selectedKey(userID string) string {
	return fmt.Sprintf("selected_circle:%s", userID)
}

func (s *SelectedCircleStore) SetSelected(ctx context.Context, userID, circleID string) error {
	return s.client.Set(ctx, selectedKey(userID), circleID, s.ttl)
}

func (s *SelectedCircleStore) GetSelected(ctx context.Context, userID string) (string, error) {
	v, err := s.client.Get(ctx, selectedKey(userID))
	if err != nil {
		if IsNil(err) {
			return "", nil
		}
		return "", err
	}
	return v, nil
}

func (s *SelectedCircleStore) ClearSelected(ctx context.Context, userID string) error {
	return s.client.Del(ctx, selectedKey(userID))
}
