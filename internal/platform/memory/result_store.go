package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/domain"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/store"
)

// RepetitionResultStore is an in-memory implementation of
// store.RepetitionResultStore.
type RepetitionResultStore struct {
	mu      sync.RWMutex
	results map[uuid.UUID]domain.RepetitionResult
}

// NewRepetitionResultStore creates an empty in-memory result store.
func NewRepetitionResultStore() *RepetitionResultStore {
	return &RepetitionResultStore{results: make(map[uuid.UUID]domain.RepetitionResult)}
}

var _ store.RepetitionResultStore = (*RepetitionResultStore)(nil)

// WithTx returns the store itself; the memory implementation has no
// transaction support.
func (s *RepetitionResultStore) WithTx(_ *sql.Tx) store.RepetitionResultStore { return s }

func (s *RepetitionResultStore) Create(_ context.Context, result *domain.RepetitionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.results[result.ID]; ok {
		return store.ErrDuplicate
	}
	s.results[result.ID] = *result
	return nil
}

func (s *RepetitionResultStore) GetByEntry(
	_ context.Context,
	entryID uuid.UUID,
) (*domain.RepetitionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, result := range s.results {
		if result.EntryID == entryID {
			r := result
			return &r, nil
		}
	}
	return nil, store.ErrRepetitionResultNotFound
}

func (s *RepetitionResultStore) ListByMaterial(
	_ context.Context,
	materialID uuid.UUID,
) ([]*domain.RepetitionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []*domain.RepetitionResult{}
	for _, result := range s.results {
		if result.MaterialID == materialID {
			r := result
			results = append(results, &r)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CompletedAt.Before(results[j].CompletedAt)
	})
	return results, nil
}
