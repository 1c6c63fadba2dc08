// Package cmd provides CLI commands for Chatbot101.
//
// Commands:
//   - chat: Interactive terminal chat with Bubble Tea TUI (default)
//   - serve: HTTP API server
//
// Signal handling and graceful shutdown are implemented
// for all commands via context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
)

// Execute is the main entry point for the Chatbot101 application.
func Execute() error {
	// Initialize logger once at entry point
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if len(os.Args) < 2 {
		return runChat()
	}

	switch os.Args[1] {
	case "chat":
		return runChat()
	case "serve":
		return runServe()
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("Chatbot101 - A teachable terminal chatbot")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  chatbot101               Start interactive chat mode (default)")
	fmt.Println("  chatbot101 chat          Start interactive chat mode")
	fmt.Println("  chatbot101 serve [addr]  Start HTTP API server (default: 127.0.0.1:3400)")
	fmt.Println("  chatbot101 --version     Show version information")
	fmt.Println("  chatbot101 --help        Show this help")
	fmt.Println()
	fmt.Println("Conversation commands (in chat mode):")
	fmt.Println("  image: <query>     Fetch a photo for the query")
	fmt.Println("  remove image       Clear the current photo")
	fmt.Println("  skip               Skip teaching the pending question")
	fmt.Println("  quit               End the session")
	fmt.Println()
	fmt.Println("Shortcuts:")
	fmt.Println("  Ctrl+D             Exit")
	fmt.Println("  Ctrl+C             Clear current input")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  UNSPLASH_ACCESS_KEY  Optional: enables image search")
	fmt.Println("  CHATBOT_KB_PATH      Optional: knowledge base file (default: kb.json)")
	fmt.Println("  CHATBOT_KB_CREATE    Optional: create the knowledge base if missing")
	fmt.Println("  DEBUG                Optional: Enable debug logging")
}
