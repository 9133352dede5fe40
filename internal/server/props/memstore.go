package props

import (
	"encoding/xml"
	"sort"
	"strings"
	"sync"
)

// MemStore keeps dead properties in process memory. It is the store
// used when no persistence path is configured.
type MemStore struct {
	mu    sync.RWMutex
	paths map[string]map[string]string // path -> clark name -> inner XML
}

func NewMemStore() *MemStore {
	return &MemStore{paths: map[string]map[string]string{}}
}

func (s *MemStore) Names(path string) ([]xml.Name, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var names []xml.Name
	for c := range s.paths[path] {
		names = append(names, parseClark(c))
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i].Space != names[j].Space {
			return names[i].Space < names[j].Space
		}
		return names[i].Local < names[j].Local
	})
	return names, nil
}

func (s *MemStore) Get(path string, name xml.Name) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.paths[path][clark(name)]
	return v, ok, nil
}

func (s *MemStore) Set(path string, name xml.Name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.paths[path]
	if !ok {
		m = map[string]string{}
		s.paths[path] = m
	}
	m[clark(name)] = value
	return nil
}

// Remove drops one property. Removing a property that does not exist is
// not an error.
func (s *MemStore) Remove(path string, name xml.Name) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.paths[path]; ok {
		delete(m, clark(name))
		if len(m) == 0 {
			delete(s.paths, path)
		}
	}
	return nil
}

func (s *MemStore) RemoveTree(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.paths, path)
	prefix := subtreePrefix(path)
	for p := range s.paths {
		if strings.HasPrefix(p, prefix) {
			delete(s.paths, p)
		}
	}
	return nil
}

func (s *MemStore) MoveTree(src, dst string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.treeLocked(src) {
		s.paths[dst+p[len(src):]] = s.paths[p]
		delete(s.paths, p)
	}
	return nil
}

func (s *MemStore) CopyTree(src, dst string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.treeLocked(src) {
		m := map[string]string{}
		for c, v := range s.paths[p] {
			m[c] = v
		}
		s.paths[dst+p[len(src):]] = m
	}
	return nil
}

func (s *MemStore) Close() error { return nil }

func (s *MemStore) treeLocked(path string) []string {
	var out []string
	if _, ok := s.paths[path]; ok {
		out = append(out, path)
	}
	prefix := subtreePrefix(path)
	for p := range s.paths {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out
}
