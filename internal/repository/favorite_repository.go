package repository

import (
	"context"
	"database/sql"

	"github.com/experiencias-arroyo/sierra-explora/internal/model"
)

// FavoriteRepo manages the users' saved catalog entries.
type FavoriteRepo struct {
	db *sql.DB
}

func NewFavoriteRepo(db *sql.DB) *FavoriteRepo { return &FavoriteRepo{db: db} }

// List returns the user's favorite entities, most recently saved first.
func (r *FavoriteRepo) List(ctx context.Context, userID uint64) ([]model.Bookable, error) {
	q := `SELECT ` + qualified("b", bookableColumns) + `
            FROM favorites f JOIN bookables b ON b.id = f.bookable_id
           WHERE f.user_id = ?
           ORDER BY f.created_at DESC, b.id`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Bookable{}
	for rows.Next() {
		b, err := scanBookable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Add saves a favorite.  Adding one twice is not an error.  An unknown
// bookable yields ErrNotFound.
func (r *FavoriteRepo) Add(ctx context.Context, userID, bookableID uint64) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO favorites (user_id, bookable_id) VALUES (?, ?) ON DUPLICATE KEY UPDATE user_id = user_id`, userID, bookableID)
	if mysqlErrno(err) == errNoReferenced {
		return ErrNotFound
	}
	return err
}

// Remove deletes a favorite or returns ErrNotFound.
func (r *FavoriteRepo) Remove(ctx context.Context, userID, bookableID uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = ? AND bookable_id = ?`, userID, bookableID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
