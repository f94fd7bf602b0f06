// File: internal/infra/api/mocks_test.go
package api

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"circles-platform/internal/domain"
	"circles-platform/internal/domain/model"
	"circles-platform/internal/domain/ports/repository"
)

// Compact in-memory repositories for handler tests. Concurrency is not a
// concern here; httptest drives one request at a time.

type memCircleRepo struct {
	mu      sync.Mutex
	store   map[string]*model.Circle
	members map[string][]string
}

func newMemCircleRepo() *memCircleRepo {
	return &memCircleRepo{store: map[string]*model.Circle{}, members: map[string][]string{}}
}

func (m *memCircleRepo) Save(ctx context.Context, tx repository.Tx, c *model.Circle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.store[c.ID] = &cp
	return nil
}

func (m *memCircleRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Circle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCircleRepo) ListOwned(ctx context.Context, userID string) ([]*model.Circle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Circle
	for _, c := range m.store {
		if c.OwnerID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memCircleRepo) ListMemberships(ctx context.Context, userID string) ([]*model.Circle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Circle
	for id, users := range m.members {
		for _, u := range users {
			if u == userID {
				if c, ok := m.store[id]; ok {
					cp := *c
					out = append(out, &cp)
				}
			}
		}
	}
	return out, nil
}

func (m *memCircleRepo) CountOwned(ctx context.Context, tx repository.Tx, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.store {
		if c.OwnerID == userID {
			n++
		}
	}
	return n, nil
}

func (m *memCircleRepo) CountOccupiedSeats(ctx context.Context, circleID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[circleID]; !ok {
		return 0, domain.ErrNotFound
	}
	return len(m.members[circleID]) + 1, nil
}

func (m *memCircleRepo) ReassignOwner(ctx context.Context, tx repository.Tx, circleID, newOwnerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[circleID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if !c.TransferBlock {
		return false, nil
	}
	c.OwnerID = newOwnerID
	c.TransferBlock = false
	return true, nil
}

func (m *memCircleRepo) AddExtraMembers(ctx context.Context, circleID string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[circleID]
	if !ok {
		return domain.ErrNotFound
	}
	c.ExtraMembers += count
	return nil
}

type memPlanRepo struct {
	mu    sync.Mutex
	store map[string]*model.PlanRecord
}

func newMemPlanRepo() *memPlanRepo { return &memPlanRepo{store: map[string]*model.PlanRecord{}} }

func (m *memPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.PlanRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.UserID] = &cp
	return nil
}

func (m *memPlanRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.PlanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPlanRepo) FindByCustomer(ctx context.Context, customerID string) (*model.PlanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.store {
		if p.CustomerID == customerID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memOfferRepo struct {
	mu    sync.Mutex
	store map[string]*model.RescueOffer
}

func newMemOfferRepo() *memOfferRepo { return &memOfferRepo{store: map[string]*model.RescueOffer{}} }

func (m *memOfferRepo) Save(ctx context.Context, tx repository.Tx, o *model.RescueOffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.store[o.ID] = &cp
	return nil
}

func (m *memOfferRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.RescueOffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOfferRepo) FindOpenByCircle(ctx context.Context, tx repository.Tx, circleID string) (*model.RescueOffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.store {
		if o.CircleID == circleID && o.Status == model.RescueOfferStatusOpen {
			cp := *o
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memOfferRepo) ListOpenPastDeadline(ctx context.Context, now time.Time) ([]*model.RescueOffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.RescueOffer
	for _, o := range m.store {
		if o.Status == model.RescueOfferStatusOpen && o.Deadline.Before(now) {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memOfferRepo) MarkExpired(ctx context.Context, offerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.store[offerID]
	if !ok || o.Status != model.RescueOfferStatusOpen {
		return false, nil
	}
	o.Status = model.RescueOfferStatusExpired
	return true, nil
}

func (m *memOfferRepo) CloseForCircle(ctx context.Context, tx repository.Tx, circleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.store {
		if o.CircleID == circleID && o.Status == model.RescueOfferStatusOpen {
			o.Status = model.RescueOfferStatusClaimed
		}
	}
	return nil
}

func (m *memOfferRepo) DeleteOpenByOwner(ctx context.Context, ownerID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, o := range m.store {
		if o.CurrentOwner == ownerID && o.Status == model.RescueOfferStatusOpen {
			delete(m.store, id)
			n++
		}
	}
	return n, nil
}

type memNotifRepo struct {
	mu    sync.Mutex
	items []*model.Notification
}

func newMemNotifRepo() *memNotifRepo { return &memNotifRepo{} }

func (m *memNotifRepo) Save(ctx context.Context, tx repository.Tx, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *n
	m.items = append(m.items, &cp)
	return nil
}

func (m *memNotifRepo) ListForUser(ctx context.Context, userID string, limit int) ([]*model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Notification
	for _, n := range m.items {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memSelectedStore struct {
	mu    sync.Mutex
	store map[string]string
}

func newMemSelectedStore() *memSelectedStore { return &memSelectedStore{store: map[string]string{}} }

func (m *memSelectedStore) SetSelected(ctx context.Context, userID, circleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[userID] = circleID
	return nil
}

func (m *memSelectedStore) GetSelected(ctx context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store[userID], nil
}

func (m *memSelectedStore) ClearSelected(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, userID)
	return nil
}

type memTxManager struct{}

func (memTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}
