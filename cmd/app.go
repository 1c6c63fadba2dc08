package cmd

import (
	"fmt"
	"time"

	"github.com/AdityaGirish/Chatbot101/internal/chat"
	"github.com/AdityaGirish/Chatbot101/internal/config"
	"github.com/AdityaGirish/Chatbot101/internal/knowledge"
	"github.com/AdityaGirish/Chatbot101/internal/log"
	"github.com/AdityaGirish/Chatbot101/internal/match"
	"github.com/AdityaGirish/Chatbot101/internal/unsplash"
)

// newEngine wires the conversation engine from configuration: the
// knowledge store, the matcher, and the image service. Both transports
// share one engine; each owns its conversations.
func newEngine(cfg *config.Config, logger log.Logger) (*chat.Engine, error) {
	store, err := knowledge.NewFileStore(knowledge.Config{
		Path:   cfg.KBPath,
		Create: cfg.KBCreate,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening knowledge base: %w", err)
	}

	images, err := unsplash.New(unsplash.Config{
		BaseURL:   cfg.Unsplash.BaseURL,
		AccessKey: cfg.Unsplash.AccessKey,
		Timeout:   time.Duration(cfg.Unsplash.TimeoutMS) * time.Millisecond,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating image client: %w", err)
	}

	engine, err := chat.New(chat.Config{
		Store:   store,
		Matcher: match.New(cfg.MatchThreshold),
		Images:  images,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating conversation engine: %w", err)
	}
	return engine, nil
}
