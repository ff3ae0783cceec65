package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/samber/lo"

	"github.com/experiencias-arroyo/sierra-explora/internal/model"
)

// BookableRepo persists the catalog of services, attractions and events.
// Schedule columns are nullable; which ones are meaningful depends on kind
// and is settled by model.Bookable.Resolve when rows are scanned.
type BookableRepo struct {
	db *sql.DB
}

func NewBookableRepo(db *sql.DB) *BookableRepo { return &BookableRepo{db: db} }

const bookableColumns = `id, kind, name, description, location, price_cents, tickets_available,
       event_date, event_time, day_start, day_end, time_start, time_end, created_at, updated_at`

// qualified prefixes every column of a column list with a table alias.
func qualified(alias, cols string) string {
	return strings.Join(lo.Map(strings.Split(cols, ","), func(c string, _ int) string {
		return alias + "." + strings.TrimSpace(c)
	}), ", ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBookable(s rowScanner) (model.Bookable, error) {
	var (
		b       model.Bookable
		tickets sql.NullInt64
		slot    [2]sql.NullString
		win     [4]sql.NullString
	)
	err := s.Scan(&b.ID, &b.Kind, &b.Name, &b.Description, &b.Location, &b.PriceCents, &tickets,
		&slot[0], &slot[1], &win[0], &win[1], &win[2], &win[3], &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return model.Bookable{}, err
	}
	if tickets.Valid {
		n := int(tickets.Int64)
		b.TicketsAvailable = &n
	}
	b.Resolve(
		model.FixedSlot{Date: slot[0].String, Time: slot[1].String},
		model.WeeklyWindow{DayStart: win[0].String, DayEnd: win[1].String, TimeStart: win[2].String, TimeEnd: win[3].String},
	)
	return b, nil
}

// List returns the catalog ordered by name.  An empty kind lists every kind.
func (r *BookableRepo) List(ctx context.Context, kind model.Kind) ([]model.Bookable, error) {
	q := `SELECT ` + bookableColumns + ` FROM bookables`
	var args []any
	if kind != "" {
		q += ` WHERE kind = ?`
		args = append(args, kind)
	}
	q += ` ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, q, args...)
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

// GetByID loads one entity or returns ErrNotFound.
func (r *BookableRepo) GetByID(ctx context.Context, id uint64) (model.Bookable, error) {
	b, err := scanBookable(r.db.QueryRowContext(ctx, `SELECT `+bookableColumns+` FROM bookables WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Bookable{}, ErrNotFound
	}
	return b, err
}

// Create inserts b and fills in its ID and timestamps.
func (r *BookableRepo) Create(ctx context.Context, b *model.Bookable) error {
	const q = `INSERT INTO bookables (kind, name, description, location, price_cents, tickets_available,
                event_date, event_time, day_start, day_end, time_start, time_end)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, append([]any{b.Kind}, scheduleArgs(b)...)...)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*b = stored
	return nil
}

// Update overwrites every column of b.ID.  Kind is immutable.
func (r *BookableRepo) Update(ctx context.Context, b *model.Bookable) error {
	current, err := r.GetByID(ctx, b.ID)
	if err != nil {
		return err
	}
	if current.Kind != b.Kind {
		return ErrConflict
	}
	const q = `UPDATE bookables SET name = ?, description = ?, location = ?, price_cents = ?, tickets_available = ?,
                 event_date = ?, event_time = ?, day_start = ?, day_end = ?, time_start = ?, time_end = ?
               WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, append(scheduleArgs(b), b.ID)...); err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, b.ID)
	if err != nil {
		return err
	}
	*b = stored
	return nil
}

// Delete removes the entity.  Reservations keep their copied name and kind;
// favorites cascade.
func (r *BookableRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookables WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// scheduleArgs lists the mutable columns in insert order, kind excluded.
func scheduleArgs(b *model.Bookable) []any {
	var tickets sql.NullInt64
	if b.TicketsAvailable != nil {
		tickets = sql.NullInt64{Int64: int64(*b.TicketsAvailable), Valid: true}
	}
	slot, win := b.Slot(), b.Window()
	return []any{
		b.Name, b.Description, b.Location, b.PriceCents, tickets,
		nullString(slot.Date), nullString(slot.Time),
		nullString(win.DayStart), nullString(win.DayEnd), nullString(win.TimeStart), nullString(win.TimeEnd),
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
