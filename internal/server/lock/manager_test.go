package lock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExclusiveBlocksEverything(t *testing.T) {
	m := NewManager()

	_, err := m.Acquire("/share/a", DepthZero, Exclusive, "", time.Minute)
	require.NoError(t, err)

	_, err = m.Acquire("/share/a", DepthZero, Exclusive, "", time.Minute)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = m.Acquire("/share/a", DepthZero, Shared, "", time.Minute)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSharedLocksCoexist(t *testing.T) {
	m := NewManager()

	l1, err := m.Acquire("/share/a", DepthZero, Shared, "", time.Minute)
	require.NoError(t, err)
	l2, err := m.Acquire("/share/a", DepthZero, Shared, "", time.Minute)
	require.NoError(t, err)

	assert.NotEqual(t, l1.Token, l2.Token)
	assert.Equal(t, 2, m.Count())

	_, err = m.Acquire("/share/a", DepthZero, Exclusive, "", time.Minute)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestInfinityLockCoversDescendants(t *testing.T) {
	m := NewManager()

	_, err := m.Acquire("/share/dir", DepthInfinity, Exclusive, "", time.Minute)
	require.NoError(t, err)

	_, err = m.Acquire("/share/dir/deep/file", DepthZero, Exclusive, "", time.Minute)
	assert.ErrorIs(t, err, ErrConflict)

	// depth 0 on the parent leaves children free
	m2 := NewManager()
	_, err = m2.Acquire("/share/dir", DepthZero, Exclusive, "", time.Minute)
	require.NoError(t, err)
	_, err = m2.Acquire("/share/dir/child", DepthZero, Exclusive, "", time.Minute)
	assert.NoError(t, err)
}

func TestInfinityRequestConflictsWithDescendantLock(t *testing.T) {
	m := NewManager()

	_, err := m.Acquire("/share/dir/file", DepthZero, Exclusive, "", time.Minute)
	require.NoError(t, err)

	_, err = m.Acquire("/share/dir", DepthInfinity, Exclusive, "", time.Minute)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSimilarPrefixIsNotAncestor(t *testing.T) {
	m := NewManager()

	_, err := m.Acquire("/share/ab", DepthInfinity, Exclusive, "", time.Minute)
	require.NoError(t, err)

	// "/share/abc" is a sibling of "/share/ab", not a descendant
	_, err = m.Acquire("/share/abc", DepthZero, Exclusive, "", time.Minute)
	assert.NoError(t, err)
}

func TestExpiryFreesThePath(t *testing.T) {
	m := NewManager()
	now := time.Now()
	m.now = func() time.Time { return now }

	l, err := m.Acquire("/share/a", DepthZero, Exclusive, "", time.Second)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)

	_, err = m.Acquire("/share/a", DepthZero, Exclusive, "", time.Minute)
	assert.NoError(t, err)

	assert.ErrorIs(t, m.Release(l.Token), ErrNoSuchLock)
}

func TestRefreshExtendsExpiry(t *testing.T) {
	m := NewManager()
	now := time.Now()
	m.now = func() time.Time { return now }

	l, err := m.Acquire("/share/a", DepthZero, Exclusive, "", time.Minute)
	require.NoError(t, err)

	now = now.Add(50 * time.Second)
	refreshed, err := m.Refresh(l.Token, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Minute), refreshed.Expiry)

	now = now.Add(50 * time.Second)
	_, err = m.Acquire("/share/a", DepthZero, Exclusive, "", time.Minute)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestReleaseTwice(t *testing.T) {
	m := NewManager()

	l, err := m.Acquire("/share/a", DepthZero, Exclusive, "", time.Minute)
	require.NoError(t, err)

	require.NoError(t, m.Release(l.Token))
	assert.ErrorIs(t, m.Release(l.Token), ErrNoSuchLock)
	assert.Zero(t, m.Count())
}

func TestQueryTreeSeesCoveringAndDescendantLocks(t *testing.T) {
	m := NewManager()

	parent, err := m.Acquire("/share/dir", DepthInfinity, Shared, "", time.Minute)
	require.NoError(t, err)
	child, err := m.Acquire("/share/dir/sub/file", DepthZero, Shared, "", time.Minute)
	require.NoError(t, err)

	got := m.QueryTree("/share/dir/sub")
	tokens := map[string]bool{}
	for _, l := range got {
		tokens[l.Token] = true
	}
	assert.True(t, tokens[parent.Token])
	assert.True(t, tokens[child.Token])
}

func TestReleaseTreeDropsSubtreeOnly(t *testing.T) {
	m := NewManager()

	inside, err := m.Acquire("/share/dir/file", DepthZero, Exclusive, "", time.Minute)
	require.NoError(t, err)
	outside, err := m.Acquire("/share/other", DepthZero, Exclusive, "", time.Minute)
	require.NoError(t, err)

	m.ReleaseTree("/share/dir")

	assert.ErrorIs(t, m.Release(inside.Token), ErrNoSuchLock)
	assert.NoError(t, m.Release(outside.Token))
}

func TestCovers(t *testing.T) {
	m := NewManager()

	l, err := m.Acquire("/share/dir", DepthInfinity, Exclusive, "", time.Minute)
	require.NoError(t, err)

	assert.True(t, m.Covers(l.Token, "/share/dir"))
	assert.True(t, m.Covers(l.Token, "/share/dir/deep/file"))
	assert.False(t, m.Covers(l.Token, "/share/other"))
	assert.False(t, m.Covers("opaquelocktoken:nope", "/share/dir"))
}
