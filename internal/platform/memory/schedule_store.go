package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/domain"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/store"
)

// ScheduleEntryStore is an in-memory implementation of
// store.ScheduleEntryStore. Completion holds the write lock for the
// whole check-and-set, which gives the same at-most-once guarantee as
// the SQL compare-and-swap.
type ScheduleEntryStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]domain.ScheduleEntry
}

// NewScheduleEntryStore creates an empty in-memory schedule entry store.
func NewScheduleEntryStore() *ScheduleEntryStore {
	return &ScheduleEntryStore{entries: make(map[uuid.UUID]domain.ScheduleEntry)}
}

var _ store.ScheduleEntryStore = (*ScheduleEntryStore)(nil)

// WithTx returns the store itself; the memory implementation has no
// transaction support.
func (s *ScheduleEntryStore) WithTx(_ *sql.Tx) store.ScheduleEntryStore { return s }

func (s *ScheduleEntryStore) Create(_ context.Context, entry *domain.ScheduleEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[entry.ID]; ok {
		return store.ErrDuplicate
	}
	s.entries[entry.ID] = copyEntry(entry)
	return nil
}

func (s *ScheduleEntryStore) GetByID(_ context.Context, id uuid.UUID) (*domain.ScheduleEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, store.ErrScheduleEntryNotFound
	}
	e := copyEntry(&entry)
	return &e, nil
}

func (s *ScheduleEntryStore) DeleteIncomplete(
	_ context.Context,
	userID, materialID uuid.UUID,
) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, entry := range s.entries {
		if entry.UserID == userID && entry.MaterialID == materialID && !entry.IsCompleted {
			delete(s.entries, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *ScheduleEntryStore) Complete(
	_ context.Context,
	id, userID uuid.UUID,
	completedAt time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok || entry.UserID != userID || entry.IsCompleted {
		return store.ErrScheduleEntryNotFound
	}

	entry.IsCompleted = true
	t := completedAt
	entry.CompletedAt = &t
	s.entries[id] = entry
	return nil
}

func (s *ScheduleEntryStore) FindDue(
	_ context.Context,
	userID *uuid.UUID,
	target time.Time,
) ([]*domain.ScheduleEntry, error) {
	day := domain.DateOf(target)

	return s.collect(func(entry *domain.ScheduleEntry) bool {
		if entry.IsCompleted {
			return false
		}
		if userID != nil && entry.UserID != *userID {
			return false
		}
		if entry.Kind.IsIntraday() {
			return entry.ScheduledDate.Equal(day)
		}
		return !entry.ScheduledDate.After(day)
	}), nil
}

func (s *ScheduleEntryStore) FindOverdue(
	_ context.Context,
	userID *uuid.UUID,
	lastDate time.Time,
) ([]*domain.ScheduleEntry, error) {
	day := domain.DateOf(lastDate)

	return s.collect(func(entry *domain.ScheduleEntry) bool {
		if entry.IsCompleted || !entry.Kind.IsLongHorizon() {
			return false
		}
		if userID != nil && entry.UserID != *userID {
			return false
		}
		return !entry.ScheduledDate.After(day)
	}), nil
}

func (s *ScheduleEntryStore) FindExpiredIntraday(
	_ context.Context,
	before time.Time,
) ([]*domain.ScheduleEntry, error) {
	day := domain.DateOf(before)

	return s.collect(func(entry *domain.ScheduleEntry) bool {
		return !entry.IsCompleted &&
			entry.Kind.IsIntraday() &&
			entry.ScheduledDate.Before(day)
	}), nil
}

func (s *ScheduleEntryStore) ListByMaterial(
	_ context.Context,
	materialID uuid.UUID,
) ([]*domain.ScheduleEntry, error) {
	return s.collect(func(entry *domain.ScheduleEntry) bool {
		return entry.MaterialID == materialID
	}), nil
}

func (s *ScheduleEntryStore) collect(match func(*domain.ScheduleEntry) bool) []*domain.ScheduleEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := []*domain.ScheduleEntry{}
	for _, entry := range s.entries {
		if match(&entry) {
			e := copyEntry(&entry)
			entries = append(entries, &e)
		}
	}
	sortEntries(entries)
	return entries
}

func sortEntries(entries []*domain.ScheduleEntry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.ScheduledDate.Equal(b.ScheduledDate) {
			return a.ScheduledDate.Before(b.ScheduledDate)
		}
		if a.Stage != b.Stage {
			return a.Stage < b.Stage
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

func copyEntry(entry *domain.ScheduleEntry) domain.ScheduleEntry {
	e := *entry
	if entry.CompletedAt != nil {
		t := *entry.CompletedAt
		e.CompletedAt = &t
	}
	return e
}
