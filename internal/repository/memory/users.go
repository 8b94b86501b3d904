package memory

import (
	"context"
	"sort"
	"time"

	"lost-persons/internal/domain/user"
	lperrors "lost-persons/pkg/errors"

	"github.com/google/uuid"
)

type userRepository struct {
	s *Store
	j *journal
}

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.data.users {
		if existing.Email == u.Email {
			return lperrors.ErrConflict
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	keepKey(r.j, r.s.data.users, u.ID)
	r.s.data.users[u.ID] = *u
	return nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.data.users[id]
	if !ok {
		return user.User{}, lperrors.ErrNotFound
	}
	return u, nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.data.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, lperrors.ErrNotFound
}

func (r *userRepository) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []user.User
	for _, id := range ids {
		if u, ok := r.s.data.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *userRepository) sorted() []user.User {
	out := make([]user.User, 0, len(r.s.data.users))
	for _, u := range r.s.data.users {
		out = append(out, u)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *userRepository) GetAllUsers(ctx context.Context, page, limit int) ([]user.User, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := r.sorted()
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *userRepository) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := r.sorted()
	ids := make([]uuid.UUID, len(all))
	for i, u := range all {
		ids[i] = u.ID
	}
	return ids, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, u user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.data.users[u.ID]
	if !ok {
		return lperrors.ErrNotFound
	}
	for id, existing := range r.s.data.users {
		if id != u.ID && existing.Email == u.Email {
			return lperrors.ErrConflict
		}
	}
	u.PasswordHash = current.PasswordHash
	u.CreatedAt = current.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	keepKey(r.j, r.s.data.users, u.ID)
	r.s.data.users[u.ID] = u
	return nil
}

func paginate[T any](items []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		return items
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return nil
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
