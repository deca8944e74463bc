// Package model provides fit-state bookkeeping and the interfaces shared by the
// feature pipeline stages and the classifier.
package model

import (
	"sync"

	lerrors "github.com/YuminosukeSato/loanml/pkg/errors"
)

// StateManager tracks the fitted state of a stage in a thread-safe manner.
type StateManager struct {
	mu     sync.RWMutex
	fitted bool
}

// NewStateManager creates an unfitted StateManager.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted returns whether the stage has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fitted
}

// SetFitted marks the stage as fitted.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = true
}

// RequireFitted returns a ModelNotTrainedError naming op if the stage is unfitted.
func (s *StateManager) RequireFitted(op string) error {
	if !s.IsFitted() {
		return lerrors.NewModelNotTrainedError(op)
	}
	return nil
}
