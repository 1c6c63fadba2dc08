package tui

import (
	tea "charm.land/bubbletea/v2"

	"github.com/AdityaGirish/Chatbot101/internal/chat"
)

// replyMsg delivers the outcome of one conversation turn.
type replyMsg struct {
	reply chat.Reply
}

// replyErrMsg delivers a failed turn.
type replyErrMsg struct {
	err error
}

// startTurn runs one utterance through the conversation off the event
// loop. The image search inside a turn can block on the network, so the
// turn must not run in Update.
func (t *TUI) startTurn(utterance string) tea.Cmd {
	return func() tea.Msg {
		reply, err := t.conv.Handle(t.ctx, utterance)
		if err != nil {
			return replyErrMsg{err: err}
		}
		return replyMsg{reply: reply}
	}
}
