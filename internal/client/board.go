package client

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/experiencias-arroyo/sierra-explora/internal/lifecycle"
	"github.com/experiencias-arroyo/sierra-explora/internal/model"
)

// AdminBoard is an admin's local copy of all reservations.  It is never
// patched in place: every action, successful or not, is followed by a
// full refetch so the view cannot drift from the server.
type AdminBoard struct {
	client *Client
	actor  lifecycle.Actor

	mu        sync.Mutex
	items     []model.Reservation
	fetchedAt time.Time
}

// NewAdminBoard returns an empty board acting as adminID.  Call Refresh to
// load it.
func NewAdminBoard(c *Client, adminID uint64) *AdminBoard {
	return &AdminBoard{client: c, actor: lifecycle.Actor{UserID: adminID, Admin: true}}
}

// Refresh replaces the snapshot.  On error the previous snapshot stays.
func (b *AdminBoard) Refresh(ctx context.Context) error {
	list, err := b.client.All(ctx)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.items, b.fetchedAt = list, b.client.now()
	b.mu.Unlock()
	return nil
}

// Reservations returns a copy of the snapshot.
func (b *AdminBoard) Reservations() []model.Reservation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Reservation(nil), b.items...)
}

// Pending returns the reservations that still show action controls.
func (b *AdminBoard) Pending() []model.Reservation {
	return lo.Filter(b.Reservations(), func(r model.Reservation, _ int) bool {
		return r.Status == model.StatusPending
	})
}

// FetchedAt reports when the snapshot was last loaded, or the zero time.
func (b *AdminBoard) FetchedAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fetchedAt
}

// Confirm confirms id and reloads the board.
func (b *AdminBoard) Confirm(ctx context.Context, id uint64) error {
	return b.apply(ctx, id, lifecycle.ActionConfirm)
}

// Reject rejects id and reloads the board.
func (b *AdminBoard) Reject(ctx context.Context, id uint64) error {
	return b.apply(ctx, id, lifecycle.ActionReject)
}

// apply checks the action against the snapshot, sends it, then refetches.
// Terminal states never change, so a terminal snapshot entry is refused
// without a request.  The action's error wins over a refetch error.
func (b *AdminBoard) apply(ctx context.Context, id uint64, a lifecycle.Action) error {
	target, _ := a.Target()
	err := b.localCheck(id, target)
	if err == nil {
		_, err = b.client.SetStatus(ctx, id, target)
	}
	if rerr := b.Refresh(ctx); rerr != nil && err == nil {
		err = rerr
	}
	return err
}

func (b *AdminBoard) localCheck(id uint64, target model.Status) error {
	b.mu.Lock()
	r, ok := lo.Find(b.items, func(r model.Reservation) bool { return r.ID == id })
	b.mu.Unlock()
	if !ok || !lifecycle.IsTerminal(r.Status) {
		return nil
	}
	return &TransitionError{ID: id, From: r.Status, To: target}
}
