package tui

import (
	"context"

	"librarymanager/internal/catalog"

	tea "github.com/charmbracelet/bubbletea"
)

type confirmRequest struct {
	prompt string
	reply  chan bool
}

// Bridge carries notifications and delete prompts from coordinator
// goroutines into the running program. It implements catalog.Notifier and
// catalog.Confirmer.
type Bridge struct {
	notes    chan catalog.Notification
	confirms chan confirmRequest
}

func NewBridge() *Bridge {
	return &Bridge{
		notes:    make(chan catalog.Notification, 16),
		confirms: make(chan confirmRequest),
	}
}

func (b *Bridge) Notify(ctx context.Context, n catalog.Notification) {
	select {
	case b.notes <- n:
	case <-ctx.Done():
	}
}

// Confirm blocks until the user answers in the program. A cancelled
// context counts as no.
func (b *Bridge) Confirm(ctx context.Context, prompt string) bool {
	req := confirmRequest{prompt: prompt, reply: make(chan bool, 1)}
	select {
	case b.confirms <- req:
	case <-ctx.Done():
		return false
	}
	select {
	case yes := <-req.reply:
		return yes
	case <-ctx.Done():
		return false
	}
}

type noteMsg catalog.Notification

type confirmMsg confirmRequest

func (b *Bridge) waitForNote() tea.Msg {
	return noteMsg(<-b.notes)
}

func (b *Bridge) waitForConfirm() tea.Msg {
	return confirmMsg(<-b.confirms)
}
