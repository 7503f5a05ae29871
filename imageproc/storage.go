package imageproc

import (
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// Storage keeps uploaded images on disk. Files are temporary session data,
// they are removed together with their session.
type Storage struct {
	dir string
}

func NewStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Storage{dir: dir}, nil
}

func (s *Storage) Store(filename string, data []byte) error {
	return os.WriteFile(s.path(filename), data, 0644)
}

func (s *Storage) Load(filename string) ([]byte, error) {
	return os.ReadFile(s.path(filename))
}

// Overwrite replaces the stored pixels under the same filename. Used by the
// crop-and-recrop workflow; callers bump the image revision for cache
// busting.
func (s *Storage) Overwrite(filename string, data []byte) error {
	return s.Store(filename, data)
}

func (s *Storage) Remove(filename string) {
	if err := os.Remove(s.path(filename)); err != nil && !os.IsNotExist(err) {
		log.Debug("[Storage] Couldn't remove file: ", err.Error())
	}
}

func (s *Storage) path(filename string) string {
	return filepath.Join(s.dir, filepath.Base(filename))
}
