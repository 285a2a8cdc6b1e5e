package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/arunika0/menu/internal/model"
)

// RestaurantRepo encapsulates queries on the `restaurants` table.
type RestaurantRepo struct {
	db *sql.DB
}

func NewRestaurantRepo(db *sql.DB) *RestaurantRepo {
	return &RestaurantRepo{db: db}
}

const restaurantColumns = "id, name, address, description, image"

// List returns restaurants ordered by id.  A non-nil onlyID restricts the
// result to that single restaurant, which is how restaurant admins see the
// list.
func (r *RestaurantRepo) List(ctx context.Context, onlyID *uint64) ([]model.Restaurant, error) {
	q := "SELECT " + restaurantColumns + " FROM restaurants"
	var args []any
	if onlyID != nil {
		q += " WHERE id = ?"
		args = append(args, *onlyID)
	}
	q += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Restaurant{}
	for rows.Next() {
		rest, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rest)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns ErrNotFound if no row matches.
func (r *RestaurantRepo) GetByID(ctx context.Context, id uint64) (model.Restaurant, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+restaurantColumns+" FROM restaurants WHERE id = ?", id)
	rest, err := scanRestaurant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Restaurant{}, ErrNotFound
	}
	return rest, err
}

// Exists reports whether a restaurant with the given id is present.
func (r *RestaurantRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM restaurants WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Create inserts rest and fills in its ID.
func (r *RestaurantRepo) Create(ctx context.Context, rest *model.Restaurant) error {
	const q = "INSERT INTO restaurants (name, address, description, image) VALUES (?, ?, ?, ?)"
	res, err := r.db.ExecContext(ctx, q, rest.Name, nullString(rest.Address), nullString(rest.Description), nullString(rest.Image))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rest.ID = uint64(id)
	return nil
}

// Update overwrites every mutable column of rest.
func (r *RestaurantRepo) Update(ctx context.Context, rest model.Restaurant) error {
	const q = `UPDATE restaurants
	           SET name = ?, address = ?, description = ?, image = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, rest.Name, nullString(rest.Address), nullString(rest.Description), nullString(rest.Image), rest.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_, err := r.GetByID(ctx, rest.ID)
		return err
	}
	return nil
}

// Delete removes a restaurant together with its menu items, categories and
// bound admin accounts.  The cascade is explicit so it does not depend on
// the engine honouring foreign key actions.
func (r *RestaurantRepo) Delete(ctx context.Context, id uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var one int
	if err = tx.QueryRowContext(ctx, "SELECT 1 FROM restaurants WHERE id = ?", id).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	for _, q := range []string{
		"DELETE FROM menu_items WHERE restaurant_id = ?",
		"DELETE FROM categories WHERE restaurant_id = ?",
		"DELETE FROM users WHERE restaurant_id = ?",
		"DELETE FROM restaurants WHERE id = ?",
	} {
		if _, err = tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	return nil
}

func scanRestaurant(s scanner) (model.Restaurant, error) {
	var (
		rest                        model.Restaurant
		address, description, image sql.NullString
	)
	if err := s.Scan(&rest.ID, &rest.Name, &address, &description, &image); err != nil {
		return model.Restaurant{}, err
	}
	rest.Address = stringPtr(address)
	rest.Description = stringPtr(description)
	rest.Image = stringPtr(image)
	return rest, nil
}
