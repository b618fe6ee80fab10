package state

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/xid"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"pixelmirror/pkg/mirror"
)

func NewStore(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Store keeps the mirror identity in a small YAML file.
type Store struct {
	fs   afero.Fs
	path string
}

type file struct {
	Mirror mirror.Identity `yaml:"mirror"`
}

func (s *Store) Path() string {
	return s.path
}

// Load returns the zero identity when nothing was saved yet.
func (s *Store) Load() (mirror.Identity, error) {
	bs, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return mirror.Identity{}, nil
		}
		return mirror.Identity{}, err
	}

	var f file
	if err := yaml.Unmarshal(bs, &f); err != nil {
		return mirror.Identity{}, fmt.Errorf("parse %s failed: %w", s.path, err)
	}

	return f.Mirror, nil
}

// Save replaces the file through a temp file so a crash never leaves half
// an identity behind.
func (s *Store) Save(id mirror.Identity) error {
	bs, err := yaml.Marshal(&file{Mirror: id})
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if exists, err := afero.DirExists(s.fs, dir); err != nil {
		return err
	} else if !exists {
		if err2 := s.fs.MkdirAll(dir, 0755); err2 != nil {
			return err2
		}
	}

	tmp := filepath.Join(dir, "."+filepath.Base(s.path)+"."+xid.New().String())
	if err := afero.WriteFile(s.fs, tmp, bs, 0644); err != nil {
		return err
	}

	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return err
	}

	return nil
}
