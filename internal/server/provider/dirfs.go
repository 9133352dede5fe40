package provider

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
)

// DirFS serves a directory tree of the local filesystem.
type DirFS struct {
	root string // absolute, no trailing '/'
}

func NewDirFS(root string) (*DirFS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &DirFS{root: strings.TrimSuffix(abs, "/")}, nil
}

func (d *DirFS) abs(path string) string {
	return d.root + filepath.FromSlash(path)
}

func mapOsError(err error) error {
	switch {
	case err == nil:
		return nil
	case os.IsNotExist(err):
		return ErrNotExist
	case os.IsExist(err):
		return ErrExist
	case os.IsPermission(err):
		return ErrPermission
	case errors.Is(err, syscall.ENOSPC):
		return ErrNoSpace
	case errors.Is(err, syscall.ENOTEMPTY):
		return ErrNotEmpty
	}
	return err
}

func (d *DirFS) Stat(path string) (FileInfo, error) {
	fi, err := os.Stat(d.abs(path))
	if err != nil {
		return FileInfo{}, mapOsError(err)
	}
	name := ""
	if path != "/" {
		name = fi.Name()
	}
	return FileInfo{Name: name, IsDir: fi.IsDir(), Size: fi.Size(), ModTime: fi.ModTime()}, nil
}

func (d *DirFS) List(path string) ([]FileInfo, error) {
	entries, err := os.ReadDir(d.abs(path))
	if err != nil {
		return nil, mapOsError(err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	infos := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		fi, err := e.Info()
		if err != nil {
			continue // raced with a concurrent delete
		}
		infos = append(infos, FileInfo{Name: e.Name(), IsDir: fi.IsDir(), Size: fi.Size(), ModTime: fi.ModTime()})
	}
	return infos, nil
}

func (d *DirFS) Open(path string) (File, FileInfo, error) {
	f, err := os.OpenFile(d.abs(path), os.O_RDONLY, 0)
	if err != nil {
		return nil, FileInfo{}, mapOsError(err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, FileInfo{}, mapOsError(err)
	}
	fi := FileInfo{Name: st.Name(), IsDir: st.IsDir(), Size: st.Size(), ModTime: st.ModTime()}
	return f, fi, nil
}

// Write streams body into a temp file next to the target, then renames
// it into place so readers never see a half-written resource.
func (d *DirFS) Write(path string, body io.Reader) (created bool, err error) {
	abs := d.abs(path)

	if st, serr := os.Stat(abs); serr == nil {
		if st.IsDir() {
			return false, ErrExist
		}
	} else if os.IsNotExist(serr) {
		created = true
		if pst, perr := os.Stat(filepath.Dir(abs)); perr != nil || !pst.IsDir() {
			return false, ErrNoParent
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(abs), ".davd-put-*")
	if err != nil {
		return false, mapOsError(err)
	}
	tmpName := tmp.Name()

	_, copyErr := io.Copy(tmp, body)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(tmpName)
		if copyErr != nil {
			return false, mapOsError(copyErr)
		}
		return false, mapOsError(closeErr)
	}

	if err := os.Rename(tmpName, abs); err != nil {
		os.Remove(tmpName)
		return false, mapOsError(err)
	}
	return created, nil
}

func (d *DirFS) Mkcol(path string) error {
	if err := os.Mkdir(d.abs(path), 0777); err != nil {
		if os.IsNotExist(err) {
			return ErrNoParent
		}
		return mapOsError(err)
	}
	return nil
}

func (d *DirFS) Delete(path string) error {
	abs := d.abs(path)
	st, err := os.Stat(abs)
	if err != nil {
		return mapOsError(err)
	}
	if st.IsDir() {
		return mapOsError(os.Remove(abs))
	}
	return mapOsError(os.Remove(abs))
}

func (d *DirFS) CopyFile(src, dst string) error {
	in, err := os.OpenFile(d.abs(src), os.O_RDONLY, 0)
	if err != nil {
		return mapOsError(err)
	}
	defer in.Close()

	st, err := in.Stat()
	if err != nil {
		return mapOsError(err)
	}

	out, err := os.OpenFile(d.abs(dst), os.O_RDWR|os.O_CREATE|os.O_TRUNC, st.Mode()&os.ModePerm)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNoParent
		}
		return mapOsError(err)
	}
	_, copyErr := io.Copy(out, in)
	closeErr := out.Close()
	if copyErr != nil {
		return mapOsError(copyErr)
	}
	return mapOsError(closeErr)
}

func (d *DirFS) Move(src, dst string) error {
	return mapOsError(os.Rename(d.abs(src), d.abs(dst)))
}
