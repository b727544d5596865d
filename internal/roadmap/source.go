package roadmap

import (
	"context"
	"errors"
	"io/fs"
	"path"
	"sort"
)

// Source reads the roadmap dataset. Paths are slash separated and relative
// to the dataset root. Missing files report fs.ErrNotExist.
type Source interface {
	ReadFile(ctx context.Context, name string) ([]byte, error)
	// ListFiles returns the sorted base names of regular files directly
	// under dir. A missing dir yields an empty list.
	ListFiles(ctx context.Context, dir string) ([]string, error)
}

// FSSource serves a checkout of the dataset from any fs.FS, typically
// os.DirFS of the repository root.
type FSSource struct {
	fsys fs.FS
}

func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

func (s *FSSource) ReadFile(_ context.Context, name string) ([]byte, error) {
	return fs.ReadFile(s.fsys, path.Clean(name))
}

func (s *FSSource) ListFiles(_ context.Context, dir string) ([]string, error) {
	entries, err := fs.ReadDir(s.fsys, path.Clean(dir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
