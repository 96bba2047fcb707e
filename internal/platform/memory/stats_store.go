package memory

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/domain"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/store"
)

type statsKey struct {
	userID uuid.UUID
	date   time.Time
}

// UserStatsStore is an in-memory implementation of store.UserStatsStore.
type UserStatsStore struct {
	mu    sync.RWMutex
	stats map[statsKey]domain.UserStatistics
}

// NewUserStatsStore creates an empty in-memory statistics store.
func NewUserStatsStore() *UserStatsStore {
	return &UserStatsStore{stats: make(map[statsKey]domain.UserStatistics)}
}

var _ store.UserStatsStore = (*UserStatsStore)(nil)

// WithTx returns the store itself; the memory implementation has no
// transaction support.
func (s *UserStatsStore) WithTx(_ *sql.Tx) store.UserStatsStore { return s }

func (s *UserStatsStore) IncrementDaily(
	_ context.Context,
	userID uuid.UUID,
	day time.Time,
	successDelta, failedDelta, materialsDelta int,
) error {
	key := statsKey{userID: userID, date: domain.DateOf(day)}

	s.mu.Lock()
	defer s.mu.Unlock()

	stats, ok := s.stats[key]
	if !ok {
		stats = domain.UserStatistics{UserID: userID, Date: key.date}
	}
	stats.SuccessfulRepeats += successDelta
	stats.FailedRepeats += failedDelta
	stats.TotalMaterialsAdded += materialsDelta
	stats.UpdatedAt = time.Now().UTC()
	s.stats[key] = stats
	return nil
}

func (s *UserStatsStore) GetDaily(
	_ context.Context,
	userID uuid.UUID,
	day time.Time,
) (*domain.UserStatistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats, ok := s.stats[statsKey{userID: userID, date: domain.DateOf(day)}]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &stats, nil
}
