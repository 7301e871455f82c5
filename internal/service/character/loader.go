// Package character loads character documents from disk and serves them
// through character.Store.
package character

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/zhouzirui/chara-chat/backend/internal/analysis/profile"
	"github.com/zhouzirui/chara-chat/backend/internal/model/character"
)

// DefaultDir is where character documents live relative to the working directory.
const DefaultDir = "docs/characters"

const documentExt = ".md"

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidID reports whether id can name a character document.
func ValidID(id string) bool {
	return idPattern.MatchString(id) && !strings.HasPrefix(id, "_")
}

// FileStore implements character.Store over a directory of Markdown
// documents. Loaded documents are cached until the next Reload.
type FileStore struct {
	fs  afero.Fs
	dir string

	cache *character.MemoryStore

	mu      sync.RWMutex
	loadErr error
}

// NewFileStore creates a store reading documents from dir on fsys.
// Use afero.NewOsFs() in production and afero.NewMemMapFs() in tests.
func NewFileStore(fsys afero.Fs, dir string) *FileStore {
	return &FileStore{
		fs:    fsys,
		dir:   dir,
		cache: character.NewMemoryStore(nil),
	}
}

// NewOsFileStore creates a FileStore on the real filesystem.
func NewOsFileStore(dir string) *FileStore {
	return NewFileStore(afero.NewOsFs(), dir)
}

// Dir returns the document directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Reload rescans the document directory and replaces the cached snapshot.
// A document that cannot be read is skipped; a directory that cannot be
// listed keeps the previous snapshot and makes List fail until the next
// successful reload.
func (s *FileStore) Reload() error {
	entries, err := s.scan()

	s.mu.Lock()
	s.loadErr = err
	s.mu.Unlock()

	if err != nil {
		log.Printf("[character] failed to load characters from %s: %v", s.dir, err)
		return err
	}

	s.cache.Replace(entries)
	log.Printf("[character] loaded %d characters from %s", len(entries), s.dir)
	return nil
}

func (s *FileStore) scan() ([]character.Entry, error) {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("read characters directory: %w", err)
	}

	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		id, ok := documentID(info.Name())
		if !ok {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entries := make([]character.Entry, 0, len(ids))
	for _, id := range ids {
		p, err := s.readProfile(id)
		if err != nil {
			log.Printf("[character] skip %s: %v", id, err)
			continue
		}
		entries = append(entries, character.Entry{ID: id, Profile: p})
	}
	return entries, nil
}

// List returns summaries of every loaded character.
func (s *FileStore) List() ([]character.Summary, error) {
	s.mu.RLock()
	err := s.loadErr
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return s.cache.List()
}

// FindProfile returns the profile for id. Documents added since the last
// reload are read directly from disk.
func (s *FileStore) FindProfile(id string) (character.Profile, error) {
	if !ValidID(id) {
		return character.Profile{}, character.ErrNotFound
	}

	if p, err := s.cache.FindProfile(id); err == nil {
		return p, nil
	}

	p, err := s.readProfile(id)
	if errors.Is(err, fs.ErrNotExist) {
		return character.Profile{}, character.ErrNotFound
	}
	if err != nil {
		return character.Profile{}, err
	}
	return p, nil
}

func (s *FileStore) readProfile(id string) (character.Profile, error) {
	data, err := afero.ReadFile(s.fs, s.path(id))
	if err != nil {
		return character.Profile{}, fmt.Errorf("read character %s: %w", id, err)
	}
	return profile.Parse(string(data)), nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+documentExt)
}

// documentID maps a file name to a character id. Files prefixed with "_" are
// templates and never exposed.
func documentID(name string) (string, bool) {
	if !strings.HasSuffix(name, documentExt) || strings.HasPrefix(name, "_") {
		return "", false
	}
	id := strings.TrimSuffix(name, documentExt)
	if !ValidID(id) {
		return "", false
	}
	return id, true
}
