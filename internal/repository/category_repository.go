package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/arunika0/menu/internal/model"
)

// CategoryRepo encapsulates queries on the `categories` table.
type CategoryRepo struct {
	db *sql.DB
}

func NewCategoryRepo(db *sql.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

// List returns categories ordered by id, restricted to one restaurant when
// restaurantID is non-nil.
func (r *CategoryRepo) List(ctx context.Context, restaurantID *uint64) ([]model.Category, error) {
	q := "SELECT id, name, restaurant_id FROM categories"
	var args []any
	if restaurantID != nil {
		q += " WHERE restaurant_id = ?"
		args = append(args, *restaurantID)
	}
	q += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.RestaurantID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CategoryRepo) GetByID(ctx context.Context, id uint64) (model.Category, error) {
	var c model.Category
	err := r.db.QueryRowContext(ctx, "SELECT id, name, restaurant_id FROM categories WHERE id = ?", id).
		Scan(&c.ID, &c.Name, &c.RestaurantID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Category{}, ErrNotFound
	}
	return c, err
}

// TenantOf returns the restaurant owning the category.
func (r *CategoryRepo) TenantOf(ctx context.Context, categoryID uint64) (uint64, error) {
	var rid uint64
	err := r.db.QueryRowContext(ctx, "SELECT restaurant_id FROM categories WHERE id = ?", categoryID).Scan(&rid)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return rid, err
}

// Create inserts c and fills in its ID.  A duplicate name within the same
// restaurant yields ErrConflict.
func (r *CategoryRepo) Create(ctx context.Context, c *model.Category) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO categories (name, restaurant_id) VALUES (?, ?)", c.Name, c.RestaurantID)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// Rename changes the category name.  The owning restaurant never changes.
func (r *CategoryRepo) Rename(ctx context.Context, id uint64, name string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE categories SET name = ? WHERE id = ?", name, id)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}
	return nil
}

// Delete removes the category and detaches its menu items, which stay in
// place with a NULL category.
func (r *CategoryRepo) Delete(ctx context.Context, id uint64) (err error) {
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

	if _, err = tx.ExecContext(ctx, "UPDATE menu_items SET category_id = NULL WHERE category_id = ?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}
