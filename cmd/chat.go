package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	tea "charm.land/bubbletea/v2"

	"github.com/AdityaGirish/Chatbot101/internal/config"
	"github.com/AdityaGirish/Chatbot101/internal/tui"
)

// runChat initializes and starts the interactive chat with Bubble Tea TUI.
func runChat() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()
	engine, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}

	model, err := tui.New(ctx, engine.NewConversation())
	if err != nil {
		return fmt.Errorf("creating TUI: %w", err)
	}
	program := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err = program.Run(); err != nil {
		return fmt.Errorf("TUI exited: %w", err)
	}
	return nil
}
