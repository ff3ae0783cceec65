package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/samber/lo"

	"github.com/experiencias-arroyo/sierra-explora/internal/lifecycle"
	"github.com/experiencias-arroyo/sierra-explora/internal/model"
)

// ReservationRepo stores reservations and their status history.  Status
// changes go through UpdateStatus only, which locks the row so the
// pending-only rule holds under concurrent admins.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationSelect = `SELECT r.id, r.user_id, u.display_name, r.service_id, r.service_name, r.service_kind,
       r.res_date, r.res_time, r.party_size, r.comments, r.status, r.created_at, r.updated_at
  FROM reservations r
  JOIN users u ON u.id = r.user_id`

func scanReservation(s rowScanner) (model.Reservation, error) {
	var (
		res  model.Reservation
		name sql.NullString
	)
	err := s.Scan(&res.ID, &res.UserID, &name, &res.ServiceID, &res.ServiceName, &res.ServiceKind,
		&res.Date, &res.Time, &res.PartySize, &res.Comments, &res.Status, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return model.Reservation{}, err
	}
	if name.Valid && name.String != "" {
		res.CustomerName = &name.String
	}
	return res, nil
}

func (r *ReservationRepo) list(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// Create inserts a pending reservation.  The caller has already validated
// the slot; Status is forced to pending regardless of what res carries.
// On success res is replaced by the stored row.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations (user_id, service_id, service_name, service_kind, res_date, res_time, party_size, comments, status)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, res.UserID, res.ServiceID, res.ServiceName, res.ServiceKind,
		res.Date, res.Time, res.PartySize, res.Comments, model.StatusPending)
	if err != nil {
		if mysqlErrno(err) == errNoReferenced {
			return ErrNotFound
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*res = stored
	return nil
}

// GetByID returns a reservation or ErrNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx, reservationSelect+` WHERE r.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, ErrNotFound
	}
	return res, err
}

// ListByUser returns the user's reservations, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	return r.list(ctx, reservationSelect+` WHERE r.user_id = ? ORDER BY r.created_at DESC, r.id DESC`, userID)
}

// ListAll returns every reservation, newest first, optionally limited to
// the given statuses.
func (r *ReservationRepo) ListAll(ctx context.Context, statuses ...model.Status) ([]model.Reservation, error) {
	q := reservationSelect
	statuses = lo.Uniq(statuses)
	if len(statuses) > 0 {
		marks := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
		q += ` WHERE r.status IN (` + marks + `)`
	}
	q += ` ORDER BY r.created_at DESC, r.id DESC`
	args := lo.Map(statuses, func(s model.Status, _ int) any { return string(s) })
	return r.list(ctx, q, args...)
}

// UpdateStatus moves reservation id to target on behalf of actor.  The row
// is read with SELECT ... FOR UPDATE, the move is checked with
// lifecycle.Transition, and the history row is written in the same
// transaction.  It returns the updated reservation and the status it left.
//
// Errors: ErrNotFound, lifecycle.ErrForbidden, *lifecycle.TransitionError.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, target model.Status, actor lifecycle.Actor) (model.Reservation, model.Status, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Reservation{}, "", err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var (
		ownerID uint64
		current model.Status
	)
	err = tx.QueryRowContext(ctx, `SELECT user_id, status FROM reservations WHERE id = ? FOR UPDATE`, id).Scan(&ownerID, &current)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, "", ErrNotFound
	}
	if err != nil {
		return model.Reservation{}, "", err
	}
	if err := lifecycle.Transition(current, ownerID, target, actor); err != nil {
		return model.Reservation{}, current, err
	}

	result, err := tx.ExecContext(ctx, `UPDATE reservations SET status = ? WHERE id = ? AND status = ?`, target, id, current)
	if err != nil {
		return model.Reservation{}, current, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		// The row lock makes this unreachable unless the isolation level was lowered.
		return model.Reservation{}, current, &lifecycle.TransitionError{From: current, To: target}
	}
	const hist = `INSERT INTO reservation_status_history (reservation_id, from_status, to_status, actor_id, actor_role)
                  VALUES (?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, hist, id, current, target, actor.UserID, actor.Role()); err != nil {
		return model.Reservation{}, current, err
	}
	if err := tx.Commit(); err != nil {
		return model.Reservation{}, current, err
	}
	committed = true

	res, err := r.GetByID(ctx, id)
	return res, current, err
}

// History returns the status changes of a reservation in the order they
// happened.
func (r *ReservationRepo) History(ctx context.Context, id uint64) ([]model.StatusChange, error) {
	const q = `SELECT id, reservation_id, from_status, to_status, actor_id, actor_role, created_at
                 FROM reservation_status_history WHERE reservation_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.StatusChange{}
	for rows.Next() {
		var c model.StatusChange
		if err := rows.Scan(&c.ID, &c.ReservationID, &c.FromStatus, &c.ToStatus, &c.ActorID, &c.ActorRole, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
