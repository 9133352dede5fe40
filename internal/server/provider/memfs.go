package provider

import (
	"io"
	"os"
	"path"
	"sort"

	"github.com/spf13/afero"
)

// MemFS is the in-memory provider variant, for throwaway shares and
// tests. All state lives in an afero MemMapFs.
type MemFS struct {
	fs afero.Fs
}

func NewMemFS() *MemFS {
	return &MemFS{fs: afero.NewMemMapFs()}
}

func mapAferoError(err error) error {
	switch {
	case err == nil:
		return nil
	case os.IsNotExist(err):
		return ErrNotExist
	case os.IsExist(err):
		return ErrExist
	case os.IsPermission(err):
		return ErrPermission
	}
	return err
}

func (m *MemFS) Stat(p string) (FileInfo, error) {
	fi, err := m.fs.Stat(p)
	if err != nil {
		return FileInfo{}, mapAferoError(err)
	}
	name := ""
	if p != "/" {
		name = path.Base(p)
	}
	return FileInfo{Name: name, IsDir: fi.IsDir(), Size: fi.Size(), ModTime: fi.ModTime()}, nil
}

func (m *MemFS) List(p string) ([]FileInfo, error) {
	fis, err := afero.ReadDir(m.fs, p)
	if err != nil {
		return nil, mapAferoError(err)
	}
	sort.Slice(fis, func(i, j int) bool { return fis[i].Name() < fis[j].Name() })

	infos := make([]FileInfo, 0, len(fis))
	for _, fi := range fis {
		infos = append(infos, FileInfo{Name: fi.Name(), IsDir: fi.IsDir(), Size: fi.Size(), ModTime: fi.ModTime()})
	}
	return infos, nil
}

func (m *MemFS) Open(p string) (File, FileInfo, error) {
	f, err := m.fs.Open(p)
	if err != nil {
		return nil, FileInfo{}, mapAferoError(err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, FileInfo{}, mapAferoError(err)
	}
	fi := FileInfo{Name: st.Name(), IsDir: st.IsDir(), Size: st.Size(), ModTime: st.ModTime()}
	return f, fi, nil
}

func (m *MemFS) Write(p string, body io.Reader) (created bool, err error) {
	if st, serr := m.fs.Stat(p); serr == nil {
		if st.IsDir() {
			return false, ErrExist
		}
	} else {
		created = true
		if p != "/" {
			if pst, perr := m.fs.Stat(path.Dir(p)); perr != nil || !pst.IsDir() {
				return false, ErrNoParent
			}
		}
	}

	// Buffer first so the swap is all-or-nothing.
	content, err := io.ReadAll(body)
	if err != nil {
		return false, err
	}
	if err := afero.WriteFile(m.fs, p, content, 0666); err != nil {
		return false, mapAferoError(err)
	}
	return created, nil
}

func (m *MemFS) Mkcol(p string) error {
	if _, err := m.fs.Stat(p); err == nil {
		return ErrExist
	}
	if p != "/" {
		if pst, perr := m.fs.Stat(path.Dir(p)); perr != nil || !pst.IsDir() {
			return ErrNoParent
		}
	}
	return mapAferoError(m.fs.Mkdir(p, 0777))
}

func (m *MemFS) Delete(p string) error {
	st, err := m.fs.Stat(p)
	if err != nil {
		return mapAferoError(err)
	}
	if st.IsDir() {
		children, err := afero.ReadDir(m.fs, p)
		if err != nil {
			return mapAferoError(err)
		}
		if len(children) > 0 {
			return ErrNotEmpty
		}
	}
	return mapAferoError(m.fs.Remove(p))
}

func (m *MemFS) CopyFile(src, dst string) error {
	in, err := m.fs.Open(src)
	if err != nil {
		return mapAferoError(err)
	}
	defer in.Close()

	if dst != "/" {
		if pst, perr := m.fs.Stat(path.Dir(dst)); perr != nil || !pst.IsDir() {
			return ErrNoParent
		}
	}
	content, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	return mapAferoError(afero.WriteFile(m.fs, dst, content, 0666))
}

func (m *MemFS) Move(src, dst string) error {
	return mapAferoError(m.fs.Rename(src, dst))
}
