// Package auth keeps the allowlist of operators who may edit the keyword index.
package auth

import (
	"fmt"
	"sync"
)

type User struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type Repository interface {
	LoadAll() ([]User, error)
	Upsert(user User) error
	Remove(userID string) error
}

type Service struct {
	repo  Repository
	mu    sync.RWMutex
	users map[string]User
}

// NewWithRepo preloads the repository and merges the initial IDs from the environment.
// An unreadable repository is an error; an empty one is not.
func NewWithRepo(repo Repository, initial []string) (*Service, error) {
	s := &Service{repo: repo, users: make(map[string]User)}
	if repo != nil {
		users, err := repo.LoadAll()
		if err != nil {
			return nil, fmt.Errorf("load operators: %w", err)
		}
		for _, u := range users {
			s.users[u.ID] = u
		}
	}
	for _, id := range initial {
		if id == "" {
			continue
		}
		if _, ok := s.users[id]; !ok {
			s.users[id] = User{ID: id}
		}
	}
	return s, nil
}

// Open reports whether no operator is configured, in which case everyone is an operator.
func (s *Service) Open() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users) == 0
}

func (s *Service) IsAllowed(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.users) == 0 {
		return true
	}
	_, ok := s.users[userID]
	return ok
}

// Upsert persists first; the allowlist changes only when the write succeeded.
func (s *Service) Upsert(user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.repo != nil {
		if err := s.repo.Upsert(user); err != nil {
			return err
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *Service) Remove(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.repo != nil {
		if err := s.repo.Remove(userID); err != nil {
			return err
		}
	}
	delete(s.users, userID)
	return nil
}

func (s *Service) List() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out
}
