package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type memRepo struct{ users []User }

func (m *memRepo) LoadAll() ([]User, error) { return append([]User{}, m.users...), nil }
func (m *memRepo) Upsert(u User) error {
	for i, x := range m.users {
		if x.ID == u.ID {
			m.users[i] = u
			return nil
		}
	}
	m.users = append(m.users, u)
	return nil
}
func (m *memRepo) Remove(id string) error {
	out := make([]User, 0, len(m.users))
	for _, x := range m.users {
		if x.ID != id {
			out = append(out, x)
		}
	}
	m.users = out
	return nil
}

func TestServiceBasic(t *testing.T) {
	repo := &memRepo{users: []User{{ID: "Ualice", Name: "alice"}}}
	svc, err := NewWithRepo(repo, []string{"tg:20"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	if !svc.IsAllowed("Ualice") {
		t.Fatalf("repo preload not effective")
	}
	if !svc.IsAllowed("tg:20") {
		t.Fatalf("initial env list not merged")
	}
	if svc.IsAllowed("Umallory") {
		t.Fatalf("unexpected allowed")
	}

	if err := svc.Upsert(User{ID: "Ubob", Name: "bob"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !svc.IsAllowed("Ubob") {
		t.Fatalf("upsert not effective")
	}

	if err := svc.Remove("Ualice"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if svc.IsAllowed("Ualice") {
		t.Fatalf("remove not effective")
	}

	lst := svc.List()
	if len(lst) != 2 {
		t.Fatalf("want 2 users, got %d", len(lst))
	}
}

func TestEmptyAllowlistIsOpen(t *testing.T) {
	svc, err := NewWithRepo(nil, nil)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !svc.Open() || !svc.IsAllowed("anyone") {
		t.Fatalf("empty allowlist should admit everyone")
	}
	_ = svc.Upsert(User{ID: "U1"})
	if svc.Open() || svc.IsAllowed("anyone") {
		t.Fatalf("non-empty allowlist should restrict")
	}
}

func TestFileRepository_RoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "data", "admins.json")
	repo, err := NewFileRepository(p)
	if err != nil {
		t.Fatalf("repo: %v", err)
	}
	users, err := repo.LoadAll()
	if err != nil || len(users) != 0 {
		t.Fatalf("fresh repo should be empty: %v %v", users, err)
	}
	if err := repo.Upsert(User{ID: "U1", Name: "one"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.Upsert(User{ID: "U1", Name: "uno"}); err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	if err := repo.Upsert(User{ID: "U2"}); err != nil {
		t.Fatalf("upsert 2: %v", err)
	}
	if err := repo.Remove("U2"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	svc, _ := NewWithRepo(repo, nil)
	lst := svc.List()
	if len(lst) != 1 || lst[0].Name != "uno" {
		t.Fatalf("unexpected users: %+v", lst)
	}
}

func TestFileRepository_CorruptFileIsNotOverwritten(t *testing.T) {
	p := filepath.Join(t.TempDir(), "admins.json")
	if err := os.WriteFile(p, []byte("[{oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	repo, err := NewFileRepository(p)
	if err != nil {
		t.Fatalf("repo: %v", err)
	}
	if _, err := NewWithRepo(repo, []string{"U1"}); err == nil {
		t.Fatalf("expected load error for corrupt file")
	}
	if err := repo.Upsert(User{ID: "U1"}); err == nil {
		t.Fatalf("upsert should refuse to replace a corrupt file")
	}
	data, _ := os.ReadFile(p)
	if string(data) != "[{oops" {
		t.Fatalf("file was modified: %q", data)
	}
}

type failingRepo struct{ memRepo }

var errDiskFull = errors.New("disk full")

func (f *failingRepo) Upsert(User) error   { return errDiskFull }
func (f *failingRepo) Remove(string) error { return errDiskFull }

func TestService_FailedWriteLeavesAllowlistUnchanged(t *testing.T) {
	repo := &failingRepo{memRepo{users: []User{{ID: "Ualice"}}}}
	svc, err := NewWithRepo(repo, nil)
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	if err := svc.Upsert(User{ID: "Ubob"}); !errors.Is(err, errDiskFull) {
		t.Fatalf("expected write error, got %v", err)
	}
	if svc.IsAllowed("Ubob") {
		t.Fatalf("failed upsert must not grant access")
	}

	if err := svc.Remove("Ualice"); !errors.Is(err, errDiskFull) {
		t.Fatalf("expected write error, got %v", err)
	}
	if !svc.IsAllowed("Ualice") {
		t.Fatalf("failed remove must not revoke access")
	}
}
