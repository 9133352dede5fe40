package provider

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runProviderSuite(t *testing.T, newProvider func(t *testing.T) Provider) {
	t.Run("WriteStatOpen", func(t *testing.T) {
		p := newProvider(t)

		created, err := p.Write("/f.txt", strings.NewReader("hello"))
		require.NoError(t, err)
		assert.True(t, created)

		fi, err := p.Stat("/f.txt")
		require.NoError(t, err)
		assert.Equal(t, "f.txt", fi.Name)
		assert.False(t, fi.IsDir)
		assert.EqualValues(t, 5, fi.Size)

		f, _, err := p.Open("/f.txt")
		require.NoError(t, err)
		defer f.Close()
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))

		created, err = p.Write("/f.txt", strings.NewReader("rewritten"))
		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("WriteWithoutParent", func(t *testing.T) {
		p := newProvider(t)
		_, err := p.Write("/no/parent.txt", strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrNoParent)
	})

	t.Run("MkcolListDelete", func(t *testing.T) {
		p := newProvider(t)

		require.NoError(t, p.Mkcol("/dir"))
		assert.ErrorIs(t, p.Mkcol("/dir"), ErrExist)
		assert.ErrorIs(t, p.Mkcol("/a/b"), ErrNoParent)

		_, err := p.Write("/dir/one.txt", strings.NewReader("1"))
		require.NoError(t, err)
		_, err = p.Write("/dir/two.txt", strings.NewReader("2"))
		require.NoError(t, err)

		children, err := p.List("/dir")
		require.NoError(t, err)
		require.Len(t, children, 2)
		assert.Equal(t, "one.txt", children[0].Name)
		assert.Equal(t, "two.txt", children[1].Name)

		assert.ErrorIs(t, p.Delete("/dir"), ErrNotEmpty)
		require.NoError(t, p.Delete("/dir/one.txt"))
		require.NoError(t, p.Delete("/dir/two.txt"))
		require.NoError(t, p.Delete("/dir"))
		_, err = p.Stat("/dir")
		assert.ErrorIs(t, err, ErrNotExist)
	})

	t.Run("CopyFile", func(t *testing.T) {
		p := newProvider(t)

		_, err := p.Write("/src.txt", strings.NewReader("payload"))
		require.NoError(t, err)
		require.NoError(t, p.CopyFile("/src.txt", "/dst.txt"))

		f, _, err := p.Open("/dst.txt")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "payload", string(data))

		_, err = p.Stat("/src.txt")
		assert.NoError(t, err)
	})

	t.Run("Move", func(t *testing.T) {
		p := newProvider(t)

		require.NoError(t, p.Mkcol("/dir"))
		_, err := p.Write("/dir/f.txt", strings.NewReader("x"))
		require.NoError(t, err)

		require.NoError(t, p.Move("/dir", "/moved"))
		_, err = p.Stat("/dir")
		assert.ErrorIs(t, err, ErrNotExist)
		fi, err := p.Stat("/moved/f.txt")
		require.NoError(t, err)
		assert.EqualValues(t, 1, fi.Size)
	})

	t.Run("StatMissing", func(t *testing.T) {
		p := newProvider(t)
		_, err := p.Stat("/nope")
		assert.ErrorIs(t, err, ErrNotExist)
	})
}

func TestDirFS(t *testing.T) {
	runProviderSuite(t, func(t *testing.T) Provider {
		p, err := NewDirFS(t.TempDir())
		require.NoError(t, err)
		return p
	})
}

func TestMemFS(t *testing.T) {
	runProviderSuite(t, func(t *testing.T) Provider {
		return NewMemFS()
	})
}

func TestEtagTracksChanges(t *testing.T) {
	a := FileInfo{Size: 5, ModTime: time.Unix(100, 0)}
	b := FileInfo{Size: 6, ModTime: time.Unix(100, 0)}
	c := FileInfo{Size: 5, ModTime: time.Unix(101, 0)}

	assert.Equal(t, Etag(a), Etag(a))
	assert.NotEqual(t, Etag(a), Etag(b))
	assert.NotEqual(t, Etag(a), Etag(c))
	assert.True(t, strings.HasPrefix(Etag(a), `"`))
	assert.True(t, strings.HasSuffix(Etag(a), `"`))
}
