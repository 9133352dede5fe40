package lock

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	// ErrConflict reports that another lock on the path hierarchy
	// excludes the requested one.
	ErrConflict = errors.New("lock: conflicting lock held")
	// ErrNoSuchLock reports an unknown or already-expired token.
	ErrNoSuchLock = errors.New("lock: no such lock")
)

type Scope uint8

const (
	Exclusive Scope = iota
	Shared
)

func (s Scope) String() string {
	if s == Shared {
		return "shared"
	}
	return "exclusive"
}

const (
	DepthZero     = 0
	DepthInfinity = -1
)

// Lock is a granted write lock. Owner carries the client-supplied
// descriptor verbatim (the inner XML of the owner element).
type Lock struct {
	Token   string
	Path    string
	Scope   Scope
	Depth   int
	Owner   string
	Timeout time.Duration
	Expiry  time.Time
}

// Manager owns the lock table for the whole server. Lock lifetimes are
// independent of requests and connections: entries go away only through
// Release or timeout expiry. All table access runs under one mutex with
// short critical sections; no I/O happens while it is held.
type Manager struct {
	mu      sync.Mutex
	byToken map[string]*Lock
	byPath  map[string][]*Lock

	now func() time.Time // test hook
}

func NewManager() *Manager {
	return &Manager{
		byToken: map[string]*Lock{},
		byPath:  map[string][]*Lock{},
		now:     time.Now,
	}
}

// Acquire grants a new lock on path or returns ErrConflict. The
// conflict walk covers the ancestor chain and, for depth-infinity
// requests, the descendant subtree: an exclusive request conflicts with
// any lock found, a shared request only with exclusive ones.
func (m *Manager) Acquire(path string, depth int, scope Scope, owner string, timeout time.Duration) (Lock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.purgeLocked(now)

	for _, held := range m.coveringLocked(path) {
		if scope == Exclusive || held.Scope == Exclusive {
			return Lock{}, ErrConflict
		}
	}
	if depth == DepthInfinity {
		prefix := descendantPrefix(path)
		for p, held := range m.byPath {
			if !strings.HasPrefix(p, prefix) {
				continue
			}
			for _, l := range held {
				if scope == Exclusive || l.Scope == Exclusive {
					return Lock{}, ErrConflict
				}
			}
		}
	}

	l := &Lock{
		Token:   "opaquelocktoken:" + uuid.NewString(),
		Path:    path,
		Scope:   scope,
		Depth:   depth,
		Owner:   owner,
		Timeout: timeout,
		Expiry:  now.Add(timeout),
	}
	m.byToken[l.Token] = l
	m.byPath[path] = append(m.byPath[path], l)
	return *l, nil
}

// Refresh extends the expiry of a held lock.
func (m *Manager) Refresh(token string, timeout time.Duration) (Lock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.purgeLocked(now)

	l, ok := m.byToken[token]
	if !ok {
		return Lock{}, ErrNoSuchLock
	}
	l.Timeout = timeout
	l.Expiry = now.Add(timeout)
	return *l, nil
}

// Release destroys the lock held under token. Releasing an unknown or
// expired token is a reported error, never a fault.
func (m *Manager) Release(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purgeLocked(m.now())

	l, ok := m.byToken[token]
	if !ok {
		return ErrNoSuchLock
	}
	m.removeLocked(l)
	return nil
}

// Query returns the active locks covering path, including inherited
// depth-infinity locks on ancestor collections.
func (m *Manager) Query(path string) []Lock {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purgeLocked(m.now())

	var out []Lock
	for _, l := range m.coveringLocked(path) {
		out = append(out, *l)
	}
	return out
}

// QueryTree returns the locks covering path plus every lock rooted on
// a descendant, the set a subtree operation must hold tokens for.
func (m *Manager) QueryTree(path string) []Lock {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purgeLocked(m.now())

	var out []Lock
	for _, l := range m.coveringLocked(path) {
		out = append(out, *l)
	}
	prefix := descendantPrefix(path)
	for p, held := range m.byPath {
		if p == path || !strings.HasPrefix(p, prefix) {
			continue
		}
		for _, l := range held {
			out = append(out, *l)
		}
	}
	return out
}

// ReleaseTree drops every lock rooted at path or below. Used when the
// locked resource itself is deleted or moved away.
func (m *Manager) ReleaseTree(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := descendantPrefix(path)
	for token, l := range m.byToken {
		if l.Path == path || strings.HasPrefix(l.Path, prefix) {
			delete(m.byToken, token)
			m.detachLocked(l)
		}
	}
}

// Covers reports whether the lock held under token covers path.
func (m *Manager) Covers(token, path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purgeLocked(m.now())

	l, ok := m.byToken[token]
	if !ok {
		return false
	}
	if l.Path == path {
		return true
	}
	return l.Depth == DepthInfinity && strings.HasPrefix(path, descendantPrefix(l.Path))
}

// Lookup returns the lock held under token, if any.
func (m *Manager) Lookup(token string) (Lock, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purgeLocked(m.now())

	l, ok := m.byToken[token]
	if !ok {
		return Lock{}, false
	}
	return *l, true
}

// Covered reports whether any active lock covers path.
func (m *Manager) Covered(path string) bool {
	return len(m.Query(path)) > 0
}

// Count returns the number of active locks, for metrics.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purgeLocked(m.now())
	return len(m.byToken)
}

// Sweep drops expired locks periodically so an idle server does not
// hold dead entries until the next request. Expiry itself is lazy; the
// sweep only bounds memory.
func (m *Manager) Sweep(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.mu.Lock()
			n := len(m.byToken)
			m.purgeLocked(m.now())
			dropped := n - len(m.byToken)
			m.mu.Unlock()
			if dropped > 0 {
				log.Debug().Int("Count", dropped).Msg("Swept expired locks")
			}
		}
	}
}

// coveringLocked returns active locks on path itself plus ancestor
// locks whose depth is infinity. Caller holds mu.
func (m *Manager) coveringLocked(path string) []*Lock {
	var out []*Lock
	out = append(out, m.byPath[path]...)

	for p := path; p != "/"; {
		i := strings.LastIndexByte(p, '/')
		if i <= 0 {
			p = "/"
		} else {
			p = p[:i]
		}
		for _, l := range m.byPath[p] {
			if l.Depth == DepthInfinity {
				out = append(out, l)
			}
		}
	}
	return out
}

func (m *Manager) purgeLocked(now time.Time) {
	for token, l := range m.byToken {
		if now.After(l.Expiry) {
			delete(m.byToken, token)
			m.detachLocked(l)
		}
	}
}

func (m *Manager) removeLocked(l *Lock) {
	delete(m.byToken, l.Token)
	m.detachLocked(l)
}

func (m *Manager) detachLocked(l *Lock) {
	held := m.byPath[l.Path]
	for i, h := range held {
		if h == l {
			held = append(held[:i], held[i+1:]...)
			break
		}
	}
	if len(held) == 0 {
		delete(m.byPath, l.Path)
	} else {
		m.byPath[l.Path] = held
	}
}

func descendantPrefix(path string) string {
	if path == "/" {
		return "/"
	}
	return path + "/"
}
