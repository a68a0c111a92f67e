package catalog

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Level separates good news from failures.
type Level int

const (
	LevelSuccess Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "success"
}

// Notification is a transient message for the user.
type Notification struct {
	Level   Level
	Title   string
	Message string
}

// Success builds a success notification.
func Success(message string) Notification {
	return Notification{Level: LevelSuccess, Title: "Success", Message: message}
}

// Failure builds an error notification.
func Failure(message string) Notification {
	return Notification{Level: LevelError, Title: "Error", Message: message}
}

// Notifier delivers notifications to whatever surface the user watches.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

// LogNotifier writes notifications to the global logger. Surfaces without a
// user in front of them (the HTTP service) use it.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) {
	event := log.Info()
	if n.Level == LevelError {
		event = log.Warn()
	}
	event.Str("title", n.Title).Msg(n.Message)
}

// DeletePrompt is the question asked before a book is deleted.
const DeletePrompt = "Are you sure you want to delete this book?"

// Confirmer asks the user a blocking yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

type confirmationKey struct{}

// WithConfirmation records the answer to the next prompt in ctx, for surfaces
// where the user answers up front (an HTTP request parameter, a --yes flag).
func WithConfirmation(ctx context.Context, yes bool) context.Context {
	return context.WithValue(ctx, confirmationKey{}, yes)
}

// ContextConfirmer answers with the value stored by WithConfirmation and
// declines when there is none.
var ContextConfirmer Confirmer = ConfirmFunc(func(ctx context.Context, _ string) bool {
	yes, _ := ctx.Value(confirmationKey{}).(bool)
	return yes
})
