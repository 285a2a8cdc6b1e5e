package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/arunika0/menu/internal/model"
)

// UserRepo persists credential records in the `users` table.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = "id, username, password_hash, role, restaurant_id"

// Create inserts a user whose password is already hashed and returns its ID.
// A taken username yields ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u model.User) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, role, restaurant_id) VALUES (?,?,?,?)",
		u.Username, u.PasswordHash, string(u.Role), nullUint(u.RestaurantID))
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// List returns all users ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Update rewrites username, hash, role and restaurant of a user.
func (r *UserRepo) Update(ctx context.Context, u model.User) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET username=?, password_hash=?, role=?, restaurant_id=? WHERE id=?",
		u.Username, u.PasswordHash, string(u.Role), nullUint(u.RestaurantID), u.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 affected rows for no-op updates, so confirm existence
		if _, err := r.GetByID(ctx, u.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (model.User, error) {
	var (
		u    model.User
		role string
		rid  sql.NullInt64
	)
	if err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &rid); err != nil {
		return model.User{}, err
	}
	u.Role = model.Role(role)
	u.RestaurantID = uintPtr(rid)
	return u, nil
}
