package auth

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"davd/internal/server/metrics"
	"davd/internal/util"

	"github.com/sqids/sqids-go"
)

var (
	errNonceStale  = errors.New("auth: stale nonce")
	errNonceReplay = errors.New("auth: nonce count replayed")
)

const nonceMinLength = 21

func randomNonceAlphabet() string {
	s := []rune(util.DefaultRandomStringRunes)
	rand.Shuffle(len(s), func(i, j int) {
		s[i], s[j] = s[j], s[i]
	})
	return string(s)
}

type nonceEntry struct {
	issued time.Time
	lastNc uint64
}

// nonceTable tracks issued digest nonces and the highest nonce count
// seen for each, so a replayed request is rejected. Nonces expire on a
// wall-clock window independent of any request.
type nonceTable struct {
	mu       sync.Mutex
	lifetime time.Duration
	entries  map[string]*nonceEntry
	ider     *sqids.Sqids
	seq      uint64
}

func newNonceTable(lifetime time.Duration) (*nonceTable, error) {
	ider, err := sqids.New(sqids.Options{
		MinLength: nonceMinLength,
		Alphabet:  randomNonceAlphabet(),
	})
	if err != nil {
		return nil, err
	}
	return &nonceTable{
		lifetime: lifetime,
		entries:  map[string]*nonceEntry{},
		ider:     ider,
	}, nil
}

func (t *nonceTable) issue() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.purgeLocked(time.Now())

	t.seq++
	nonce, err := t.ider.Encode([]uint64{t.seq, rand.Uint64()})
	if err != nil {
		return "", err
	}
	t.entries[nonce] = &nonceEntry{issued: time.Now()}
	metrics.NoncesIssued.Inc()
	return nonce, nil
}

// check validates a nonce and its count. The count must be strictly
// increasing per nonce; an unknown or expired nonce is stale and calls
// for a fresh challenge, not an outright failure.
func (t *nonceTable) check(nonce string, nc uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	t.purgeLocked(now)

	e, ok := t.entries[nonce]
	if !ok {
		return errNonceStale
	}
	if nc <= e.lastNc {
		return errNonceReplay
	}
	e.lastNc = nc
	return nil
}

func (t *nonceTable) purgeLocked(now time.Time) {
	for nonce, e := range t.entries {
		if now.Sub(e.issued) > t.lifetime {
			delete(t.entries, nonce)
		}
	}
}
