// Package cache persists computed tile collision rays between runs.
package cache

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/quasilyte/gdata/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/pk2-tiles/internal/logger"
	"github.com/Faultbox/pk2-tiles/pkg/collision"
)

// formatVersion is bumped whenever the stored layout changes.
const formatVersion = 1

const raysProperty = "rays"

// Cache errors.
var (
	ErrNotCached    = errors.New("no cached collision data")
	ErrCorruptEntry = errors.New("corrupt collision cache entry")
)

type entry struct {
	Version int               `yaml:"version"`
	Tiles   []*collision.Rays `yaml:"tiles"`
}

// Store keeps tile rays keyed by palette. A Store without a gdata manager
// only remembers entries for the life of the process.
type Store struct {
	manager *gdata.Manager

	mu  sync.Mutex
	mem map[string][]byte
}

// New creates a store on top of m, which may be nil.
func New(m *gdata.Manager) *Store {
	return &Store{manager: m, mem: make(map[string][]byte)}
}

// Open creates a store persisted under the given application name.
func Open(appName string) (*Store, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("opening collision cache: %w", err)
	}
	return New(m), nil
}

// Persistent reports whether entries survive the process.
func (s *Store) Persistent() bool {
	return s.manager != nil
}

// objectName maps a palette key onto the characters storage accepts.
func objectName(key string) string {
	var sb strings.Builder
	sb.WriteString("tiles_")
	for _, r := range strings.ToLower(key) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// Has reports whether rays are cached for key.
func (s *Store) Has(key string) bool {
	obj := objectName(key)
	if s.manager != nil {
		return s.manager.ObjectPropExists(obj, raysProperty)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.mem[obj]
	return ok
}

// Load returns the cached rays for key. The entry must hold count tiles of
// size x size cells; anything else is ErrCorruptEntry. Raw grids are not
// stored, so the returned rays have a nil Raw field.
func (s *Store) Load(key string, count, size int) ([]*collision.Rays, error) {
	obj := objectName(key)

	var (
		data []byte
		err  error
	)
	if s.manager != nil {
		if !s.manager.ObjectPropExists(obj, raysProperty) {
			return nil, fmt.Errorf("%w: %s", ErrNotCached, key)
		}
		data, err = s.manager.LoadObjectProp(obj, raysProperty)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", key, err)
		}
	} else {
		s.mu.Lock()
		d, ok := s.mem[obj]
		s.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotCached, key)
		}
		data = d
	}

	var e entry
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptEntry, key, err)
	}
	if e.Version != formatVersion {
		return nil, fmt.Errorf("%w: %s: version %d, expected %d", ErrCorruptEntry, key, e.Version, formatVersion)
	}
	if len(e.Tiles) != count {
		return nil, fmt.Errorf("%w: %s: %d tiles, expected %d", ErrCorruptEntry, key, len(e.Tiles), count)
	}
	for i, r := range e.Tiles {
		if r == nil {
			return nil, fmt.Errorf("%w: %s: tile %d missing", ErrCorruptEntry, key, i)
		}
		if err := r.Check(size, size); err != nil {
			return nil, fmt.Errorf("%w: %s: tile %d: %v", ErrCorruptEntry, key, i, err)
		}
	}

	logger.Debug("collision cache hit", zap.String("key", key), zap.Int("tiles", len(e.Tiles)))
	return e.Tiles, nil
}

// Save stores rays for key, replacing any previous entry.
func (s *Store) Save(key string, tiles []*collision.Rays) error {
	for i, r := range tiles {
		if r == nil {
			return fmt.Errorf("saving %s: tile %d has no rays", key, i)
		}
	}

	data, err := yaml.Marshal(entry{Version: formatVersion, Tiles: tiles})
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}

	obj := objectName(key)
	if s.manager != nil {
		if err := s.manager.SaveObjectProp(obj, raysProperty, data); err != nil {
			return fmt.Errorf("saving %s: %w", key, err)
		}
	} else {
		s.mu.Lock()
		s.mem[obj] = data
		s.mu.Unlock()
	}

	logger.Debug("collision cache stored", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}
