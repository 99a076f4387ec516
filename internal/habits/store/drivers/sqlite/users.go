package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
)

const userColumns = `id, username, password_hash, is_admin, external_handle, created_at`

type usersRepo struct {
	db dbtx
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (domain.User, error) {
	var (
		u      domain.User
		handle sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &handle, &u.CreatedAt); err != nil {
		return domain.User{}, err
	}
	u.ExternalHandle = mapNullStringPtr(handle)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	u.CreatedAt = now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, is_admin, external_handle, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.Username, u.PasswordHash, u.IsAdmin, mapOptionalString(u.ExternalHandle), u.CreatedAt,
	)
	if err != nil {
		return domain.User{}, mapUniqueViolation(err)
	}
	if u.ID, err = res.LastInsertId(); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (r *usersRepo) UpdateUser(ctx context.Context, id int64, patch domain.UserPatch) (domain.User, error) {
	u, err := r.GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if patch.IsAdmin != nil {
		u.IsAdmin = *patch.IsAdmin
	}
	if patch.ExternalHandle != nil {
		handle := *patch.ExternalHandle
		u.ExternalHandle = &handle
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE users SET is_admin = ?, external_handle = ? WHERE id = ?`,
		u.IsAdmin, mapOptionalString(u.ExternalHandle), id,
	)
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
