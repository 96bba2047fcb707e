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

// MaterialStore is an in-memory implementation of store.MaterialStore.
type MaterialStore struct {
	mu        sync.RWMutex
	materials map[uuid.UUID]domain.Material
}

// NewMaterialStore creates an empty in-memory material store.
func NewMaterialStore() *MaterialStore {
	return &MaterialStore{materials: make(map[uuid.UUID]domain.Material)}
}

var _ store.MaterialStore = (*MaterialStore)(nil)

// WithTx returns the store itself; the memory implementation has no
// transaction support.
func (s *MaterialStore) WithTx(_ *sql.Tx) store.MaterialStore { return s }

func (s *MaterialStore) Create(_ context.Context, material *domain.Material) error {
	if err := material.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.materials[material.ID]; ok {
		return store.ErrDuplicate
	}
	s.materials[material.ID] = copyMaterial(material)
	return nil
}

func (s *MaterialStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	material, ok := s.materials[id]
	if !ok {
		return nil, store.ErrMaterialNotFound
	}
	m := copyMaterial(&material)
	return &m, nil
}

func (s *MaterialStore) Update(_ context.Context, material *domain.Material) error {
	if err := material.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.materials[material.ID]; !ok {
		return store.ErrMaterialNotFound
	}
	s.materials[material.ID] = copyMaterial(material)
	return nil
}

func (s *MaterialStore) ListByUser(
	_ context.Context,
	userID uuid.UUID,
	activeOnly bool,
) ([]*domain.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	materials := []*domain.Material{}
	for _, material := range s.materials {
		if material.UserID != userID {
			continue
		}
		if activeOnly && !material.IsActive {
			continue
		}
		m := copyMaterial(&material)
		materials = append(materials, &m)
	}
	sort.Slice(materials, func(i, j int) bool {
		return materials[i].CreatedAt.Before(materials[j].CreatedAt)
	})
	return materials, nil
}

func (s *MaterialStore) Deactivate(_ context.Context, userID, materialID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	material, ok := s.materials[materialID]
	if !ok || material.UserID != userID {
		return store.ErrMaterialNotFound
	}
	material.IsActive = false
	s.materials[materialID] = material
	return nil
}

func (s *MaterialStore) CountByUser(
	_ context.Context,
	userID uuid.UUID,
	activeOnly bool,
) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, material := range s.materials {
		if material.UserID != userID {
			continue
		}
		if activeOnly && !material.IsActive {
			continue
		}
		count++
	}
	return count, nil
}

func copyMaterial(material *domain.Material) domain.Material {
	m := *material
	if material.LastSuccessAt != nil {
		t := *material.LastSuccessAt
		m.LastSuccessAt = &t
	}
	return m
}
