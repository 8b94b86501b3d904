package services

import (
	"context"
	"errors"

	"lost-persons/internal/domain/user"
	"lost-persons/internal/redis"
	"lost-persons/internal/repository"
	lperrors "lost-persons/pkg/errors"
	"lost-persons/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Identity is the directory view of a user: enough to label messages and authorize requests.
type Identity struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  user.Role `json:"role"`
}

// Directory resolves user ids to identities, reading through the redis cache when one is configured.
type Directory struct {
	users repository.UserRepository
	cache *redis.CacheStore
	log   *logger.Logger
}

func NewDirectory(users repository.UserRepository, cache *redis.CacheStore, log *logger.Logger) *Directory {
	return &Directory{users: users, cache: cache, log: log}
}

func identityOf(u user.User) Identity {
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// Lookup returns ErrNotFound when the user does not exist.
func (d *Directory) Lookup(ctx context.Context, id uuid.UUID) (Identity, error) {
	if d.cache != nil {
		cached, err := d.cache.GetUser(ctx, id)
		if err != nil {
			d.log.Ctx(ctx).Warn("identity cache read failed", zap.String("user_id", id.String()), zap.Error(err))
		} else if cached != nil {
			return Identity{ID: cached.ID, Name: cached.Name, Email: cached.Email, Role: cached.Role}, nil
		}
	}

	u, err := d.users.GetUserByID(ctx, id)
	if err != nil {
		return Identity{}, err
	}
	d.remember(ctx, u)
	return identityOf(u), nil
}

// LookupMany resolves the given ids. Unknown ids are absent from the result.
func (d *Directory) LookupMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Identity, error) {
	out := make(map[uuid.UUID]Identity, len(ids))
	missing := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		missing = append(missing, id)
	}

	if d.cache != nil && len(missing) > 0 {
		cached, err := d.cache.GetUsers(ctx, missing)
		if err != nil {
			d.log.Ctx(ctx).Warn("identity cache read failed", zap.Int("ids", len(missing)), zap.Error(err))
		} else {
			rest := missing[:0]
			for _, id := range missing {
				if c, ok := cached[id]; ok {
					out[id] = Identity{ID: c.ID, Name: c.Name, Email: c.Email, Role: c.Role}
					continue
				}
				rest = append(rest, id)
			}
			missing = rest
		}
	}

	if len(missing) == 0 {
		return out, nil
	}
	users, err := d.users.GetUsersByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = identityOf(u)
		d.remember(ctx, u)
	}
	return out, nil
}

// Name resolves a display name, falling back to fallback when the user is unknown.
func (d *Directory) Name(ctx context.Context, id uuid.UUID, fallback string) string {
	ident, err := d.Lookup(ctx, id)
	if err != nil {
		if !errors.Is(err, lperrors.ErrNotFound) {
			d.log.Ctx(ctx).Warn("identity lookup failed", zap.String("user_id", id.String()), zap.Error(err))
		}
		return fallback
	}
	return ident.Name
}

// Invalidate drops a cached identity after the user changed.
func (d *Directory) Invalidate(ctx context.Context, id uuid.UUID) {
	if d.cache == nil {
		return
	}
	if err := d.cache.InvalidateUser(ctx, id); err != nil {
		d.log.Ctx(ctx).Warn("identity cache invalidate failed", zap.String("user_id", id.String()), zap.Error(err))
	}
}

func (d *Directory) remember(ctx context.Context, u user.User) {
	if d.cache == nil {
		return
	}
	if err := d.cache.SetUserFromEntity(ctx, u); err != nil {
		d.log.Ctx(ctx).Warn("identity cache write failed", zap.String("user_id", u.ID.String()), zap.Error(err))
	}
}
