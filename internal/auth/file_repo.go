package auth

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// FileRepository keeps the operator list as a JSON array sorted by ID.
// A corrupt file is reported, never overwritten.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileRepository(path string) (*FileRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("touch file: %w", err)
	}
	_ = f.Close()
	return &FileRepository{path: path}, nil
}

func (r *FileRepository) LoadAll() ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read()
}

func (r *FileRepository) Upsert(user User) error {
	return r.update(func(users []User) []User {
		i := slices.IndexFunc(users, func(u User) bool { return u.ID == user.ID })
		if i >= 0 {
			users[i] = user
			return users
		}
		return append(users, user)
	})
}

func (r *FileRepository) Remove(userID string) error {
	return r.update(func(users []User) []User {
		return slices.DeleteFunc(users, func(u User) bool { return u.ID == userID })
	})
}

func (r *FileRepository) update(fn func([]User) []User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	users, err := r.read()
	if err != nil {
		return err
	}
	return r.write(fn(users))
}

func (r *FileRepository) read() ([]User, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	users := []User{}
	if len(bytes.TrimSpace(data)) == 0 {
		return users, nil
	}
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.path, err)
	}
	return users, nil
}

func (r *FileRepository) write(users []User) error {
	slices.SortFunc(users, func(a, b User) int { return cmp.Compare(a.ID, b.ID) })
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", r.path, err)
	}
	return nil
}
