package catalog

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Store holds the current catalog. Readers get a consistent snapshot; reloads
// swap the pointer once the new catalog is fully built.
type Store struct {
	dir     string
	current atomic.Pointer[Catalog]
	logger  zerolog.Logger
}

func NewStore(dir string, logger zerolog.Logger) *Store {
	s := &Store{dir: dir, logger: logger}
	s.current.Store(Empty())
	return s
}

// NewStaticStore serves a fixed catalog. Reload keeps it unchanged.
func NewStaticStore(c *Catalog) *Store {
	s := &Store{logger: zerolog.Nop()}
	s.current.Store(c)
	return s
}

func (s *Store) Current() *Catalog {
	return s.current.Load()
}

// Reload rereads the data directory. Problems are logged, never fatal.
func (s *Store) Reload() *Catalog {
	if s.dir == "" {
		return s.Current()
	}
	c, err := LoadDir(s.dir)
	if err != nil {
		s.logger.Warn().Err(err).Str("dir", s.dir).Msg("catalog loaded with problems")
	}
	s.current.Store(c)
	s.logger.Info().
		Int("categories", len(c.categories)).
		Int("questions", len(c.questions)).
		Int("characters", len(c.characters)).
		Msg("catalog loaded")
	return c
}
