// Package chat implements the conversation engine.
//
// An Engine holds the shared dependencies (knowledge store, matcher,
// image service, logger). Each transport creates one Conversation per
// session; a Conversation is a small state machine that processes one
// utterance to completion per Handle call.
//
// States:
//
//	Idle               waiting for a question or command
//	AwaitingCorrection a question is pending an answer from the user
//
// In Idle, an utterance is matched against the stored questions. A
// match with an answer replies with it; a match without one (an orphan
// question) or no match at all moves to AwaitingCorrection with the
// question pending. In AwaitingCorrection, "skip" discards the pending
// question and anything else is saved as its answer. "quit" ends the
// session from any state without touching the store.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/AdityaGirish/Chatbot101/internal/log"
	"github.com/AdityaGirish/Chatbot101/internal/unsplash"
)

// Canonical bot message texts.
const (
	msgOrphanQuestion = "I have a similar question, but I don't have an answer yet."
	msgUnknown        = "I don't know the answer. Can you please teach me?"
	msgCorrection     = "You are wrong. Please provide the correct answer:"
	msgSaved          = "Thank you, response saved!"
	msgSaveFailed     = "I couldn't save that, please try again."
	msgImageFound     = "Here is an image for your search:"
	msgImageNotFound  = "Sorry, I couldn't find an image for your search."
	msgImageRemoved   = "Image removed."
	msgNoImage        = "No image to remove."
)

// imagePrefix introduces an image search command, e.g. "image: sunset".
const imagePrefix = "image:"

// Store is the slice of the knowledge store the engine needs.
type Store interface {
	Questions() []string
	FindAnswer(question string) (string, bool)
	Upsert(question, answer string) error
}

// Matcher selects the closest stored question for an utterance.
type Matcher interface {
	Best(utterance string, candidates []string) (match string, ok bool)
}

// ImageService finds a photo for a search query.
type ImageService interface {
	Search(ctx context.Context, query string) (unsplash.Photo, error)
}

// Message is one bot message within a reply.
type Message struct {
	Role     string `json:"role"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Reply is the outcome of one conversation turn.
type Reply struct {
	Messages []Message `json:"messages"`
	Quit     bool      `json:"quit"`
}

// State is the conversation state.
type State int

const (
	// Idle means the conversation is waiting for a question or command.
	Idle State = iota

	// AwaitingCorrection means a question is pending an answer.
	AwaitingCorrection
)

// String implements Stringer.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingCorrection:
		return "awaiting_correction"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config holds the engine dependencies.
type Config struct {
	Store   Store
	Matcher Matcher
	Images  ImageService
	Logger  log.Logger
}

func (c *Config) validate() error {
	if c.Store == nil {
		return fmt.Errorf("store is required")
	}
	if c.Matcher == nil {
		return fmt.Errorf("matcher is required")
	}
	if c.Images == nil {
		return fmt.Errorf("image service is required")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	return nil
}

// Engine holds the shared conversation dependencies.
type Engine struct {
	store   Store
	matcher Matcher
	images  ImageService
	logger  log.Logger
}

// New creates an Engine.
func New(cfg Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Engine{
		store:   cfg.Store,
		matcher: cfg.Matcher,
		images:  cfg.Images,
		logger:  cfg.Logger.With("component", "chat"),
	}, nil
}

// NewConversation creates an isolated per-session conversation. Not
// safe for concurrent use; transports serialize turns per session.
func (e *Engine) NewConversation() *Conversation {
	return &Conversation{engine: e, state: Idle}
}

// Conversation is the per-session state machine.
type Conversation struct {
	engine *Engine

	state   State
	pending string // question awaiting an answer, valid in AwaitingCorrection
	image   bool   // an image is currently displayed
}

// State returns the current conversation state.
func (c *Conversation) State() State {
	return c.state
}

// Pending returns the question awaiting an answer, if any.
func (c *Conversation) Pending() (string, bool) {
	return c.pending, c.state == AwaitingCorrection
}

func bot(text string) Message {
	return Message{Role: "bot", Text: text}
}

// Handle processes one utterance to completion and returns the bot's
// reply. The returned error is reserved for programming errors; user
// visible failures, including a failed save, come back as messages.
func (c *Conversation) Handle(ctx context.Context, utterance string) (Reply, error) {
	input := strings.TrimSpace(utterance)

	if strings.EqualFold(input, "quit") {
		return Reply{Quit: true}, nil
	}

	if c.state == AwaitingCorrection {
		return c.handleCorrection(input), nil
	}
	return c.handleIdle(ctx, input), nil
}

func (c *Conversation) handleIdle(ctx context.Context, input string) Reply {
	// A blank turn has nothing to match and nothing worth teaching.
	if input == "" {
		return Reply{}
	}
	if strings.EqualFold(input, "remove image") {
		return c.removeImage()
	}
	if q, ok := strings.CutPrefix(input, imagePrefix); ok {
		return c.searchImage(ctx, strings.TrimSpace(q))
	}

	match, ok := c.engine.matcher.Best(input, c.engine.store.Questions())
	if !ok {
		c.engine.logger.Debug("no match, awaiting answer", "question", input)
		c.state = AwaitingCorrection
		c.pending = input
		return Reply{Messages: []Message{bot(msgUnknown), bot(msgCorrection)}}
	}

	answer, found := c.engine.store.FindAnswer(match)
	if !found || answer == "" {
		// Orphan question: remember the stored text so the taught
		// answer updates that entry instead of adding a near-duplicate.
		c.engine.logger.Debug("orphan question matched", "question", match)
		c.state = AwaitingCorrection
		c.pending = match
		return Reply{Messages: []Message{bot(msgOrphanQuestion), bot(msgCorrection)}}
	}

	return Reply{Messages: []Message{bot(answer)}}
}

func (c *Conversation) handleCorrection(input string) Reply {
	if strings.EqualFold(input, "skip") {
		c.state = Idle
		c.pending = ""
		return Reply{}
	}

	if err := c.engine.store.Upsert(c.pending, input); err != nil {
		// Stay in AwaitingCorrection so the answer is not lost.
		c.engine.logger.Error("failed to save taught answer",
			"question", c.pending, "error", err)
		return Reply{Messages: []Message{bot(msgSaveFailed)}}
	}

	c.engine.logger.Info("answer taught", "question", c.pending)
	c.state = Idle
	c.pending = ""
	return Reply{Messages: []Message{bot(msgSaved)}}
}

func (c *Conversation) searchImage(ctx context.Context, query string) Reply {
	photo, err := c.engine.images.Search(ctx, query)
	if err != nil {
		return Reply{Messages: []Message{bot(msgImageNotFound)}}
	}

	c.image = true
	return Reply{Messages: []Message{
		bot(msgImageFound),
		{Role: "bot", ImageURL: photo.URL},
	}}
}

func (c *Conversation) removeImage() Reply {
	if !c.image {
		return Reply{Messages: []Message{bot(msgNoImage)}}
	}
	c.image = false
	return Reply{Messages: []Message{bot(msgImageRemoved)}}
}
