package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/storage"
)

// memStore is an in-memory TransactionStore, CategoryStore and SettingsStore.
type memStore struct {
	mu            sync.Mutex
	txns          map[string]core.Transaction
	cats          map[string]core.Category
	settings      map[string]core.Settings
	categoryLists int
	failList      error
}

func newMemStore() *memStore {
	return &memStore{
		txns:     make(map[string]core.Transaction),
		cats:     make(map[string]core.Category),
		settings: make(map[string]core.Settings),
	}
}

func (s *memStore) add(txns ...core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range txns {
		s.txns[t.ID] = t
	}
}

func (s *memStore) CreateTransaction(_ context.Context, t core.Transaction) error {
	s.add(t)
	return nil
}

func (s *memStore) UpdateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txns[t.ID]; !ok {
		return storage.ErrNotFound
	}
	s.txns[t.ID] = t
	return nil
}

func (s *memStore) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txns[id]
	if !ok || t.UserID != userID {
		return fmt.Errorf("delete transaction %s: %w", id, storage.ErrNotFound)
	}
	delete(s.txns, id)
	return nil
}

func (s *memStore) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txns[id]
	if !ok || t.UserID != userID {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, storage.ErrNotFound)
	}
	return t, nil
}

func (s *memStore) ListTransactions(_ context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList != nil {
		return nil, s.failList
	}
	var out []core.Transaction
	for _, t := range s.txns {
		if t.UserID != userID {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.CategoryID != "" && t.CategoryID != f.CategoryID {
			continue
		}
		if f.Start != nil && t.Date.Before(*f.Start) {
			continue
		}
		if f.End != nil && t.Date.After(*f.End) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	if f.Skip > 0 {
		if f.Skip >= len(out) {
			return nil, nil
		}
		out = out[f.Skip:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *memStore) TransactionsInRange(ctx context.Context, userID string, rng core.PeriodRange) ([]core.Transaction, error) {
	return s.ListTransactions(ctx, userID, core.TransactionFilter{Start: &rng.Start, End: &rng.End})
}

func (s *memStore) NotificationCandidates(_ context.Context, userID string, from, to time.Time) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.txns {
		if t.UserID != userID {
			continue
		}
		if t.IsRecurring || (!t.Date.Before(from) && !t.Date.After(to)) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) UserIDs(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	var ids []string
	for _, t := range s.txns {
		if !seen[t.UserID] {
			seen[t.UserID] = true
			ids = append(ids, t.UserID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *memStore) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categoryLists++
	var out []core.Category
	for _, c := range s.cats {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) GetCategory(_ context.Context, userID, id string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cats[id]
	if !ok || c.UserID != userID {
		return core.Category{}, storage.ErrNotFound
	}
	return c, nil
}

func (s *memStore) CreateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cats[c.ID] = c
	return nil
}

func (s *memStore) DeleteCategory(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cats[id]
	if !ok || c.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.cats, id)
	return nil
}

func (s *memStore) GetSettings(_ context.Context, userID string) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.settings[userID]; ok {
		return st, nil
	}
	return core.DefaultSettings(userID), nil
}

func (s *memStore) UpsertSettings(_ context.Context, st core.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[st.UserID] = st
	return nil
}

type recordingPublisher struct {
	mu            sync.Mutex
	events        []*amqp.TransactionEvent
	notifications []*amqp.NotificationMessage
	failIDs       map[string]bool
	err           error
}

var errPublish = errors.New("broker unavailable")

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, ev *amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) PublishNotification(_ context.Context, msg *amqp.NotificationMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil || p.failIDs[msg.ID] {
		return errPublish
	}
	p.notifications = append(p.notifications, msg)
	return nil
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
