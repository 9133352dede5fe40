package provider

import (
	"errors"
	"fmt"
	"io"
	"time"
)

var (
	ErrNotExist   = errors.New("provider: resource does not exist")
	ErrExist      = errors.New("provider: resource already exists")
	ErrNoParent   = errors.New("provider: parent collection does not exist")
	ErrNotEmpty   = errors.New("provider: collection not empty")
	ErrPermission = errors.New("provider: permission denied")
	ErrNoSpace    = errors.New("provider: backing store out of space")
)

type FileInfo struct {
	Name    string // base name, "" for the share root
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Etag derives the opaque entity tag from the current file state. It
// changes whenever content changes and is stable otherwise.
func Etag(fi FileInfo) string {
	return fmt.Sprintf(`"%x%x"`, fi.ModTime.UnixNano(), fi.Size)
}

type File interface {
	io.ReadSeekCloser
}

// Provider is the capability surface a backing store exposes to the
// protocol engine. Paths are share-relative, slash-separated, cleaned
// and rooted ("/", "/a", "/a/b"). Recursion over collections is driven
// by the caller through List; Delete removes a single resource and
// fails on a non-empty collection.
type Provider interface {
	Stat(path string) (FileInfo, error)
	List(path string) ([]FileInfo, error)
	Open(path string) (File, FileInfo, error)

	// Write replaces the resource content atomically: a reader of the
	// same path observes either the old or the new content, never a
	// partial write.
	Write(path string, body io.Reader) (created bool, err error)
	Mkcol(path string) error
	Delete(path string) error
	CopyFile(src, dst string) error

	// Move renames the whole subtree. Providers that cannot rename
	// return an error and the caller falls back to copy and delete.
	Move(src, dst string) error
}

// New builds the provider variant for a configured share kind.
func New(kind, location string) (Provider, error) {
	switch kind {
	case "dir":
		return NewDirFS(location)
	case "mem":
		return NewMemFS(), nil
	}
	return nil, fmt.Errorf("provider: unknown kind %q", kind)
}
