// Package memory is an in-process implementation of the repository
// interfaces. Transactions are serialized and rolled back from a snapshot,
// which gives the same isolation the Postgres implementation gets from
// advisory and row locks.
package memory

import (
	"context"
	"fmt"
	"sync"

	"rental-booking/internal/data/entity"
	"rental-booking/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type txKey struct{}

type Store struct {
	mu  sync.Mutex
	log *zap.Logger

	data state
}

type state struct {
	bookings   map[uuid.UUID]*entity.Booking
	ledger     []*entity.LedgerEntry
	earnings   map[uuid.UUID]*entity.AdminEarnings
	accounts   map[uuid.UUID]*entity.RewardsAccount
	rewardTxns []*entity.RewardsTransaction
	properties map[uuid.UUID]*entity.Property
	coupons    map[string]*entity.Coupon
	slots      []*entity.PointsSlot
	settings   *entity.PointsSettings
	contacts   map[uuid.UUID]string
}

func NewStore(log *zap.Logger) *Store {
	return &Store{
		log: log.With(zap.String("repository", "memory")),
		data: state{
			bookings:   make(map[uuid.UUID]*entity.Booking),
			earnings:   make(map[uuid.UUID]*entity.AdminEarnings),
			accounts:   make(map[uuid.UUID]*entity.RewardsAccount),
			properties: make(map[uuid.UUID]*entity.Property),
			coupons:    make(map[string]*entity.Coupon),
			contacts:   make(map[uuid.UUID]string),
		},
	}
}

// Repository exposes the store through the repository interfaces.
func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		Tx:         s,
		Booking:    &bookingRepo{s},
		Ledger:     &ledgerRepo{s},
		Earnings:   &earningsRepo{s},
		Rewards:    &rewardsRepo{s},
		Property:   &propertyRepo{s},
		Coupon:     &couponRepo{s},
		PointsConf: &pointsConfigRepo{s},
		Contact:    &contactRepo{s},
	}
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(bool)
	return ok
}

// WithinTx runs fn holding the store lock. Any error or panic restores
// the state captured before fn started.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	defer func() {
		if p := recover(); p != nil {
			s.data = snapshot
			panic(p)
		}
		if err != nil {
			s.data = snapshot
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, true))
}

// lock takes the store lock for a single call made outside a transaction.
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func requireTx(ctx context.Context, what string) error {
	if !inTx(ctx) {
		return fmt.Errorf("%s: no transaction in context", what)
	}
	return nil
}

func (d state) clone() state {
	c := state{
		bookings:   make(map[uuid.UUID]*entity.Booking, len(d.bookings)),
		ledger:     make([]*entity.LedgerEntry, 0, len(d.ledger)),
		earnings:   make(map[uuid.UUID]*entity.AdminEarnings, len(d.earnings)),
		accounts:   make(map[uuid.UUID]*entity.RewardsAccount, len(d.accounts)),
		rewardTxns: make([]*entity.RewardsTransaction, 0, len(d.rewardTxns)),
		properties: make(map[uuid.UUID]*entity.Property, len(d.properties)),
		coupons:    make(map[string]*entity.Coupon, len(d.coupons)),
		slots:      make([]*entity.PointsSlot, 0, len(d.slots)),
		contacts:   make(map[uuid.UUID]string, len(d.contacts)),
	}
	for k, v := range d.bookings {
		b := *v
		c.bookings[k] = &b
	}
	for _, v := range d.ledger {
		e := *v
		c.ledger = append(c.ledger, &e)
	}
	for k, v := range d.earnings {
		e := *v
		c.earnings[k] = &e
	}
	for k, v := range d.accounts {
		a := *v
		c.accounts[k] = &a
	}
	for _, v := range d.rewardTxns {
		t := *v
		c.rewardTxns = append(c.rewardTxns, &t)
	}
	for k, v := range d.properties {
		p := *v
		c.properties[k] = &p
	}
	for k, v := range d.coupons {
		cp := *v
		c.coupons[k] = &cp
	}
	for _, v := range d.slots {
		sl := *v
		c.slots = append(c.slots, &sl)
	}
	if d.settings != nil {
		st := *d.settings
		c.settings = &st
	}
	for k, v := range d.contacts {
		c.contacts[k] = v
	}
	return c
}

// Seeding helpers for collaborator read models.

func (s *Store) AddProperty(p *entity.Property) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.data.properties[p.ID] = &cp
}

func (s *Store) AddCoupon(c *entity.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.data.coupons[c.Code] = &cp
}

func (s *Store) AddPointsSlot(slot *entity.PointsSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *slot
	s.data.slots = append(s.data.slots, &cp)
}

func (s *Store) SetPointsSettings(settings *entity.PointsSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *settings
	s.data.settings = &cp
}

func (s *Store) AddContact(userID uuid.UUID, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.contacts[userID] = email
}
