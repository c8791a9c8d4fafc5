package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/morezero/intents/pkg/intent"
)

// Store is an in-memory handler catalog safe for concurrent use. Readers see
// either the catalog before or after a Replace, never a mix.
type Store struct {
	mu          sync.RWMutex
	name        string
	handlers    map[string]Handler
	permissions map[string]bool
}

// NewStore creates a store populated from f (nil for an empty store).
func NewStore(f *File) *Store {
	s := &Store{}
	s.Replace(f)
	return s
}

// Replace swaps the whole catalog.
func (s *Store) Replace(f *File) {
	handlers := make(map[string]Handler)
	permissions := make(map[string]bool)
	name := ""
	if f != nil {
		name = f.Name
		for _, h := range f.Handlers {
			h = h.Normalized()
			handlers[h.Package] = h
		}
		for _, p := range f.Permissions {
			permissions[p] = true
		}
	}

	s.mu.Lock()
	s.name = name
	s.handlers = handlers
	s.permissions = permissions
	s.mu.Unlock()
}

// Name returns the name of the loaded catalog.
func (s *Store) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

// HandlersFor returns the handlers declaring verb, sorted by package.
func (s *Store) HandlersFor(_ context.Context, verb intent.Verb) ([]Handler, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Handler
	for _, h := range s.handlers {
		if h.Accepts(verb) {
			out = append(out, h)
		}
	}
	sortHandlers(out)
	return out, nil
}

// ListHandlers returns every handler, sorted by package.
func (s *Store) ListHandlers(_ context.Context) ([]Handler, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Handler, 0, len(s.handlers))
	for _, h := range s.handlers {
		out = append(out, h)
	}
	sortHandlers(out)
	return out, nil
}

// UpsertHandler installs or replaces the handler for h.Package.
func (s *Store) UpsertHandler(_ context.Context, h Handler) error {
	if err := h.Validate(); err != nil {
		return err
	}
	h = h.Normalized()

	s.mu.Lock()
	s.handlers[h.Package] = h
	s.mu.Unlock()
	return nil
}

// DeleteHandler removes a handler. It reports whether one was installed.
func (s *Store) DeleteHandler(_ context.Context, pkg string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.handlers[pkg]; !ok {
		return false, nil
	}
	delete(s.handlers, pkg)
	return true, nil
}

// Granted reports whether permission has been granted.
func (s *Store) Granted(_ context.Context, permission string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.permissions[permission], nil
}

// GrantPermission grants permission.
func (s *Store) GrantPermission(_ context.Context, permission string) error {
	s.mu.Lock()
	s.permissions[permission] = true
	s.mu.Unlock()
	return nil
}

// RevokePermission revokes permission.
func (s *Store) RevokePermission(_ context.Context, permission string) error {
	s.mu.Lock()
	delete(s.permissions, permission)
	s.mu.Unlock()
	return nil
}

// Ping always succeeds for the in-memory store.
func (s *Store) Ping(_ context.Context) error {
	return nil
}

func sortHandlers(hs []Handler) {
	sort.Slice(hs, func(i, j int) bool { return hs[i].Package < hs[j].Package })
}
