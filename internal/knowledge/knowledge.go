// Package knowledge persists the bot's question/answer pairs.
//
// The whole knowledge base is a single JSON document:
//
//	{
//	  "questions": [
//	    {"question": "What is Go?", "answer": "A programming language."}
//	  ]
//	}
//
// The document is rewritten in full on every save, atomically via a
// temporary file and rename, and guarded by an advisory file lock so
// concurrent processes cannot interleave writes.
package knowledge

import "errors"

// Sentinel errors for knowledge base operations.
var (
	// ErrNotFound indicates the knowledge base file does not exist.
	ErrNotFound = errors.New("knowledge base not found")

	// ErrMalformed indicates the knowledge base file exists but is not
	// valid JSON of the expected shape.
	ErrMalformed = errors.New("malformed knowledge base")

	// ErrEmptyQuestion indicates an entry with an empty question text.
	ErrEmptyQuestion = errors.New("empty question")
)

// Entry is one question/answer pair.
type Entry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Base is the on-disk document shape.
type Base struct {
	Questions []Entry `json:"questions"`
}
