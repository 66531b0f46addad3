package state

import "sync/atomic"

// Store holds the currently published Repository. Readers take the current
// reference with Current and keep using it for the whole call; a reload
// publishes a new Repository with Swap. No reader ever sees a partially
// built repository.
type Store struct {
	repo atomic.Pointer[Repository]
}

// NewStore creates a store publishing repo.
func NewStore(repo *Repository) *Store {
	s := &Store{}
	s.repo.Store(repo)
	return s
}

// Current returns the published repository.
func (s *Store) Current() *Repository {
	return s.repo.Load()
}

// Swap publishes repo and returns the previously published repository.
func (s *Store) Swap(repo *Repository) *Repository {
	return s.repo.Swap(repo)
}
