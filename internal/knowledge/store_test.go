package knowledge

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdityaGirish/Chatbot101/internal/log"
)

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "kb.json")
	s, err := NewFileStore(Config{Path: path, Create: true, Logger: log.NewNop()})
	require.NoError(t, err)
	return s, path
}

func TestNewFileStore_MissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "kb.json")

	// A mistyped path must fail loudly, not start an empty bot.
	_, err := NewFileStore(Config{Path: path, Logger: log.NewNop()})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewFileStore_CreateBootstrapsEmptyBase(t *testing.T) {
	t.Parallel()

	s, path := newTestStore(t)

	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Questions())

	// Loading alone must not create the file.
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestNewFileStore_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := NewFileStore(Config{Logger: log.NewNop()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")

	_, err = NewFileStore(Config{Path: "kb.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logger is required")
}

func TestNewFileStore_Malformed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "kb.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(Config{Path: path, Logger: log.NewNop()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestFileStore_AppendAndReload(t *testing.T) {
	t.Parallel()

	s, path := newTestStore(t)

	require.NoError(t, s.Append("What is Go?", "A programming language."))
	require.NoError(t, s.Append("Who made it?", "Google."))

	answer, ok := s.FindAnswer("What is Go?")
	require.True(t, ok)
	assert.Equal(t, "A programming language.", answer)

	// A fresh store sees exactly what was persisted.
	reloaded, err := NewFileStore(Config{Path: path, Logger: log.NewNop()})
	require.NoError(t, err)
	assert.Equal(t, []string{"What is Go?", "Who made it?"}, reloaded.Questions())
}

func TestFileStore_SaveFormat(t *testing.T) {
	t.Parallel()

	s, path := newTestStore(t)
	require.NoError(t, s.Append("q", "a"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	want := `{
  "questions": [
    {
      "question": "q",
      "answer": "a"
    }
  ]
}
`
	assert.Equal(t, want, string(data))
}

func TestFileStore_Upsert(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	require.NoError(t, s.Upsert("What is Go?", "A language."))
	require.NoError(t, s.Upsert("What is Go?", "A better answer."))

	assert.Equal(t, 1, s.Len())
	answer, ok := s.FindAnswer("What is Go?")
	require.True(t, ok)
	assert.Equal(t, "A better answer.", answer)
}

func TestFileStore_AppendAllowsDuplicates(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	require.NoError(t, s.Append("q", "first"))
	require.NoError(t, s.Append("q", "second"))

	assert.Equal(t, 2, s.Len())

	// Earliest entry wins on lookup.
	answer, ok := s.FindAnswer("q")
	require.True(t, ok)
	assert.Equal(t, "first", answer)
}

func TestFileStore_EmptyQuestionRejected(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	assert.ErrorIs(t, s.Append("", "a"), ErrEmptyQuestion)
	assert.ErrorIs(t, s.Append("   ", "a"), ErrEmptyQuestion)
	assert.ErrorIs(t, s.Upsert("", "a"), ErrEmptyQuestion)
	assert.Equal(t, 0, s.Len())
}

func TestFileStore_NoWriteWithoutMutation(t *testing.T) {
	t.Parallel()

	s, path := newTestStore(t)
	require.NoError(t, s.Append("q", "a"))

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	// Lookups never touch disk.
	s.FindAnswer("q")
	s.Questions()
	s.Len()

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
