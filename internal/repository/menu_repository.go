package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/arunika0/menu/internal/model"
)

// MenuRepo encapsulates queries on the `menu_items` table.  Reads join the
// category name so clients can group items without a second request.
type MenuRepo struct {
	db *sql.DB
}

func NewMenuRepo(db *sql.DB) *MenuRepo {
	return &MenuRepo{db: db}
}

const menuSelect = `SELECT m.id, m.name, m.price, m.description, m.image, m.category_id, c.name, m.restaurant_id
	FROM menu_items m
	LEFT JOIN categories c ON c.id = m.category_id`

// MenuFilter narrows List.  Nil fields do not filter.
type MenuFilter struct {
	RestaurantID *uint64
	CategoryID   *uint64
}

func (r *MenuRepo) List(ctx context.Context, f MenuFilter) ([]model.MenuItem, error) {
	q := menuSelect
	var args []any
	sep := " WHERE "
	if f.RestaurantID != nil {
		q += sep + "m.restaurant_id = ?"
		args = append(args, *f.RestaurantID)
		sep = " AND "
	}
	if f.CategoryID != nil {
		q += sep + "m.category_id = ?"
		args = append(args, *f.CategoryID)
	}
	q += " ORDER BY m.id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.MenuItem{}
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns ErrNotFound if no row matches.
func (r *MenuRepo) GetByID(ctx context.Context, id uint64) (model.MenuItem, error) {
	m, err := scanMenuItem(r.db.QueryRowContext(ctx, menuSelect+" WHERE m.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.MenuItem{}, ErrNotFound
	}
	return m, err
}

// Create inserts m and fills in its ID.  The joined Category name is
// ignored.
func (r *MenuRepo) Create(ctx context.Context, m *model.MenuItem) error {
	const q = `INSERT INTO menu_items (name, price, description, image, category_id, restaurant_id)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.Name, m.Price, nullString(m.Description), nullString(m.Image), nullUint(m.CategoryID), m.RestaurantID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// Update overwrites the mutable columns.  The owning restaurant is fixed at
// creation.
func (r *MenuRepo) Update(ctx context.Context, m model.MenuItem) error {
	const q = `UPDATE menu_items
	           SET name = ?, price = ?, description = ?, image = ?, category_id = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, m.Name, m.Price, nullString(m.Description), nullString(m.Image), nullUint(m.CategoryID), m.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_, err := r.GetByID(ctx, m.ID)
		return err
	}
	return nil
}

func (r *MenuRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM menu_items WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMenuItem(s scanner) (model.MenuItem, error) {
	var (
		m                  model.MenuItem
		description, image sql.NullString
		categoryName       sql.NullString
		categoryID         sql.NullInt64
	)
	if err := s.Scan(&m.ID, &m.Name, &m.Price, &description, &image, &categoryID, &categoryName, &m.RestaurantID); err != nil {
		return model.MenuItem{}, err
	}
	m.Description = stringPtr(description)
	m.Image = stringPtr(image)
	m.CategoryID = uintPtr(categoryID)
	m.Category = stringPtr(categoryName)
	return m, nil
}
