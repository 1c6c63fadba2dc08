package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"github.com/AdityaGirish/Chatbot101/internal/log"
)

// Config holds the file store configuration.
type Config struct {
	// Path is the knowledge base file.
	Path string

	// Create bootstraps an empty knowledge base when the file does not
	// exist. Without it, a missing file is a fatal load error, so a
	// mistyped path cannot silently start an empty bot.
	Create bool

	// Logger for store operations. Required.
	Logger log.Logger
}

func (c *Config) validate() error {
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	return nil
}

// FileStore keeps the knowledge base in memory and persists it as a
// single JSON document. Safe for concurrent use within a process; an
// advisory flock guards against concurrent processes.
type FileStore struct {
	path   string
	create bool
	logger log.Logger
	lock   *flock.Flock

	mu   sync.Mutex
	base Base
}

// NewFileStore loads the knowledge base at cfg.Path. A missing file is
// a fatal load error wrapping ErrNotFound unless cfg.Create is set; a
// malformed file is a fatal load error wrapping ErrMalformed, so a typo
// cannot silently erase the collection on the next save.
func NewFileStore(cfg Config) (*FileStore, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &FileStore{
		path:   cfg.Path,
		create: cfg.Create,
		logger: cfg.Logger.With("component", "knowledge"),
		lock:   flock.New(cfg.Path + ".lock"),
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	s.logger.Debug("knowledge base loaded",
		"path", s.path,
		"entries", len(s.base.Questions))
	return s, nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			if s.create {
				s.base = Base{Questions: []Entry{}}
				return nil
			}
			return fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return fmt.Errorf("failed to read knowledge base: %w", err)
	}

	var base Base
	if err := json.Unmarshal(data, &base); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, s.path, err)
	}
	if base.Questions == nil {
		base.Questions = []Entry{}
	}
	s.base = base
	return nil
}

// Questions returns the question texts in insertion order.
func (s *FileStore) Questions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.base.Questions))
	for i, e := range s.base.Questions {
		out[i] = e.Question
	}
	return out
}

// FindAnswer returns the answer stored for an exact question text.
func (s *FileStore) FindAnswer(question string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.base.Questions {
		if e.Question == question {
			return e.Answer, true
		}
	}
	return "", false
}

// Len returns the number of stored entries.
func (s *FileStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.base.Questions)
}

// Append adds a new entry and persists the whole base. Duplicate
// questions are allowed; lookups keep returning the earliest entry.
func (s *FileStore) Append(question, answer string) error {
	if strings.TrimSpace(question) == "" {
		return ErrEmptyQuestion
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.base.Questions = append(s.base.Questions, Entry{Question: question, Answer: answer})
	if err := s.save(); err != nil {
		// Roll back so memory matches disk.
		s.base.Questions = s.base.Questions[:len(s.base.Questions)-1]
		return err
	}
	return nil
}

// Upsert replaces the answer of an existing question, or appends a new
// entry when the question is not present, then persists the whole base.
func (s *FileStore) Upsert(question, answer string) error {
	if strings.TrimSpace(question) == "" {
		return ErrEmptyQuestion
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.base.Questions {
		if e.Question == question {
			prev := s.base.Questions[i].Answer
			s.base.Questions[i].Answer = answer
			if err := s.save(); err != nil {
				s.base.Questions[i].Answer = prev
				return err
			}
			return nil
		}
	}

	s.base.Questions = append(s.base.Questions, Entry{Question: question, Answer: answer})
	if err := s.save(); err != nil {
		s.base.Questions = s.base.Questions[:len(s.base.Questions)-1]
		return err
	}
	return nil
}

// save writes the document atomically: marshal, write a sibling temp
// file, fsync, rename over the target. Caller holds s.mu.
func (s *FileStore) save() error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock knowledge base: %w", err)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to unlock knowledge base", "error", err)
		}
	}()

	data, err := json.MarshalIndent(s.base, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode knowledge base: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write knowledge base: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync knowledge base: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace knowledge base: %w", err)
	}
	return nil
}
