package repository

import (
	"context"
	"database/sql"
)

// imageInUse reports whether any restaurant or menu item still points at
// ref.  Uploaded URLs may be shared between rows, so a file is only removed
// once nothing references it.
func imageInUse(ctx context.Context, db *sql.DB, ref string) (bool, error) {
	var n int64
	err := db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM restaurants WHERE image = ?) + (SELECT COUNT(*) FROM menu_items WHERE image = ?)`,
		ref, ref,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RestaurantRepo) ImageInUse(ctx context.Context, ref string) (bool, error) {
	return imageInUse(ctx, r.db, ref)
}

func (r *MenuRepo) ImageInUse(ctx context.Context, ref string) (bool, error) {
	return imageInUse(ctx, r.db, ref)
}

// ImagesOf lists the distinct image references of a restaurant's menu
// items.
func (r *MenuRepo) ImagesOf(ctx context.Context, restaurantID uint64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT image FROM menu_items WHERE restaurant_id = ? AND image IS NOT NULL`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
