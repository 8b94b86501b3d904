package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"lost-persons/internal/domain/user"
	lperrors "lost-persons/pkg/errors"

	"github.com/google/uuid"
)

type userRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, password_hash, name, phone, contact_info, role, profile_picture, created_at, updated_at`

func scanUser(row rowScanner) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Phone,
		&u.ContactInfo,
		&u.Role,
		&u.ProfilePicture,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO users (`+userColumns+`)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    `,
		u.ID,
		u.Email,
		u.PasswordHash,
		u.Name,
		u.Phone,
		u.ContactInfo,
		u.Role,
		u.ProfilePicture,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return lperrors.ErrConflict
		}
		return err
	}
	return nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, lperrors.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, lperrors.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *userRepository) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]user.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE id IN (`+buildPlaceholders(1, len(ids))+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepository) GetAllUsers(ctx context.Context, page, limit int) ([]user.User, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+userColumns+`
        FROM users
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2
    `, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepository) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *userRepository) UpdateUser(ctx context.Context, u user.User) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE users
        SET email = $1, name = $2, phone = $3, contact_info = $4, role = $5, profile_picture = $6, updated_at = $7
        WHERE id = $8
    `, u.Email, u.Name, u.Phone, u.ContactInfo, u.Role, u.ProfilePicture, time.Now().UTC(), u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return lperrors.ErrConflict
		}
		return err
	}
	return expectAffected(res, lperrors.ErrNotFound)
}
