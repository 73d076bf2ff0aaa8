// Package notifier delivers signal notifications to external channels.
package notifier

// TextNotifier is intentionally small so components can depend on it
// without importing concrete implementations.
type TextNotifier interface {
	SendText(text string) error
}
