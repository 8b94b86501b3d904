package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lost-persons/internal/domain/user"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Cache key patterns:
// - user:{user_id} - identity snapshot used by the directory

// CacheStore handles caching in Redis
type CacheStore struct {
	client  *goredis.Client
	userTTL time.Duration
}

func NewCacheStore(client *goredis.Client, userTTL time.Duration) *CacheStore {
	if userTTL <= 0 {
		userTTL = 5 * time.Minute
	}
	return &CacheStore{
		client:  client,
		userTTL: userTTL,
	}
}

// UserCache represents cached user data (subset for performance)
type UserCache struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  user.Role `json:"role"`
}

func userKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id.String())
}

// GetUser retrieves a user from cache. A miss returns nil, nil.
func (c *CacheStore) GetUser(ctx context.Context, userID uuid.UUID) (*UserCache, error) {
	data, err := c.client.Get(ctx, userKey(userID)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var u UserCache
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUsers fetches several users in one round trip. Missing keys are skipped.
func (c *CacheStore) GetUsers(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]UserCache, error) {
	out := make(map[uuid.UUID]UserCache, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = userKey(id)
	}
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var u UserCache
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			continue
		}
		out[u.ID] = u
	}
	return out, nil
}

// SetUserFromEntity stores a user from the domain entity
func (c *CacheStore) SetUserFromEntity(ctx context.Context, u user.User) error {
	data, err := json.Marshal(UserCache{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, userKey(u.ID), data, c.userTTL).Err()
}

// InvalidateUser removes a user from cache
func (c *CacheStore) InvalidateUser(ctx context.Context, userID uuid.UUID) error {
	return c.client.Del(ctx, userKey(userID)).Err()
}
