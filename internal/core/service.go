package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pcspec/internal/infra/persistence/generation"
	"pcspec/pkg/domain"

	"go.uber.org/zap"
)

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(log *zap.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// Service owns the in-memory catalogue and persists it after every change.
type Service struct {
	mu      sync.Mutex
	ps      PersistentStore
	store   *domain.Store
	log     *zap.Logger
	metrics *Metrics
}

// NewService wraps ps. The catalogue starts empty until Open or Reload.
func NewService(ps PersistentStore, opts ...ServiceOption) (*Service, error) {
	if ps == nil {
		return nil, errors.New("persistent store is required")
	}
	s := &Service{ps: ps, store: domain.NewStore(), log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Open rotates the backups and then loads the catalogue.
func (s *Service) Open(ctx context.Context) error {
	if err := s.Backup(ctx); err != nil {
		return err
	}
	return s.Reload(ctx)
}

// Reload replaces the catalogue with the persisted one, without a backup.
func (s *Service) Reload(ctx context.Context) error {
	started := time.Now()
	st, err := s.ps.Load(ctx)
	s.metrics.Observe("load", started, err)
	if err != nil {
		return fmt.Errorf("load store: %w", err)
	}
	s.mu.Lock()
	s.store = st
	s.mu.Unlock()
	s.metrics.SetPCs(st.Len())
	s.log.Debug("store loaded", zap.Int("pcs", st.Len()))
	return nil
}

// Backup rotates the backup generations.
func (s *Service) Backup(ctx context.Context) error {
	started := time.Now()
	err := s.ps.Backup(ctx)
	s.metrics.Observe("backup", started, err)
	if err != nil {
		return fmt.Errorf("backup store: %w", err)
	}
	s.log.Debug("store backed up")
	return nil
}

// Generations reports which of the live and backup documents the driver
// currently holds, newest first.
func (s *Service) Generations(ctx context.Context) ([]generation.Info, error) {
	lister, ok := s.ps.(generation.Lister)
	if !ok {
		return nil, fmt.Errorf("storage driver %T cannot list generations", s.ps)
	}
	return lister.Generations(ctx)
}

// Store returns the owned catalogue. Changes made directly are not persisted
// until the next successful mutation; prefer Mutate.
func (s *Service) Store() *domain.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store
}

// Mutate applies fn and saves when it reports a change. The error is only
// ever a persistence failure.
func (s *Service) Mutate(ctx context.Context, op string, fn func(*domain.Store) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !fn(s.store) {
		s.log.Debug("mutation not applied", zap.String("op", op))
		return false, nil
	}
	started := time.Now()
	err := s.ps.Save(ctx, s.store)
	s.metrics.Observe("save", started, err)
	if err != nil {
		return true, fmt.Errorf("%s: save store: %w", op, err)
	}
	s.metrics.SetPCs(s.store.Len())
	s.log.Debug("mutation saved", zap.String("op", op))
	return true, nil
}

func (s *Service) mutatePC(ctx context.Context, op, name string, fn func(*domain.PC) bool) (bool, error) {
	return s.Mutate(ctx, op, func(st *domain.Store) bool {
		pc, ok := st.PC(name)
		if !ok {
			return false
		}
		return fn(pc)
	})
}

// AddPC adds a PC with no components.
func (s *Service) AddPC(ctx context.Context, name string) (bool, error) {
	return s.Mutate(ctx, "add_pc", func(st *domain.Store) bool {
		return st.AddPC(name, domain.Components{})
	})
}

// RemovePC deletes a PC.
func (s *Service) RemovePC(ctx context.Context, name string) (bool, error) {
	return s.Mutate(ctx, "remove_pc", func(st *domain.Store) bool { return st.RemovePC(name) })
}

// MovePCUp moves a PC one position toward the front.
func (s *Service) MovePCUp(ctx context.Context, name string) (bool, error) {
	return s.Mutate(ctx, "move_pc_up", func(st *domain.Store) bool { return st.MovePCUp(name) })
}

// MovePCDown moves a PC one position toward the end.
func (s *Service) MovePCDown(ctx context.Context, name string) (bool, error) {
	return s.Mutate(ctx, "move_pc_down", func(st *domain.Store) bool { return st.MovePCDown(name) })
}

// AddComponent appends a component to a PC.
func (s *Service) AddComponent(ctx context.Context, pcName, category string, spec domain.Spec) (bool, error) {
	return s.mutatePC(ctx, "add_component", pcName, func(pc *domain.PC) bool {
		return pc.AddComponent(category, spec)
	})
}

// RemoveComponent deletes a component from a PC.
func (s *Service) RemoveComponent(ctx context.Context, pcName, category string) (bool, error) {
	return s.mutatePC(ctx, "remove_component", pcName, func(pc *domain.PC) bool {
		return pc.RemoveComponent(category)
	})
}

// SwapComponent replaces the Spec of a component in place.
func (s *Service) SwapComponent(ctx context.Context, pcName, category string, spec domain.Spec) (bool, error) {
	return s.mutatePC(ctx, "swap_component", pcName, func(pc *domain.PC) bool {
		return pc.SwapComponent(category, spec)
	})
}

// UpdateComponent sets one parameter of a component.
func (s *Service) UpdateComponent(ctx context.Context, pcName, category, param, value string) (bool, error) {
	return s.mutatePC(ctx, "update_component", pcName, func(pc *domain.PC) bool {
		return pc.UpdateComponent(category, param, value)
	})
}

// MoveComponentUp moves a component one position toward the front.
func (s *Service) MoveComponentUp(ctx context.Context, pcName, category string) (bool, error) {
	return s.mutatePC(ctx, "move_component_up", pcName, func(pc *domain.PC) bool {
		return pc.MoveComponentUp(category)
	})
}

// MoveComponentDown moves a component one position toward the end.
func (s *Service) MoveComponentDown(ctx context.Context, pcName, category string) (bool, error) {
	return s.mutatePC(ctx, "move_component_down", pcName, func(pc *domain.PC) bool {
		return pc.MoveComponentDown(category)
	})
}

// RemoveSpecParam deletes a parameter of a component.
func (s *Service) RemoveSpecParam(ctx context.Context, pcName, category, param string) (bool, error) {
	return s.mutatePC(ctx, "remove_spec_param", pcName, func(pc *domain.PC) bool {
		return pc.RemoveSpecParam(category, param)
	})
}

// MoveSpecParamUp moves a parameter one position toward the front.
func (s *Service) MoveSpecParamUp(ctx context.Context, pcName, category, param string) (bool, error) {
	return s.mutatePC(ctx, "move_spec_param_up", pcName, func(pc *domain.PC) bool {
		return pc.MoveSpecParamUp(category, param)
	})
}

// MoveSpecParamDown moves a parameter one position toward the end.
func (s *Service) MoveSpecParamDown(ctx context.Context, pcName, category, param string) (bool, error) {
	return s.mutatePC(ctx, "move_spec_param_down", pcName, func(pc *domain.PC) bool {
		return pc.MoveSpecParamDown(category, param)
	})
}
