package packer

import (
	"fmt"
	"strings"
)

// Unit is one conversation message with its precomputed token count.
type Unit struct {
	Text   string
	Tokens int
}

// Window is an assembled conversation string plus accounting of what it holds.
type Window struct {
	// Conversation holds the included history oldest-first, then the prompt,
	// one message per line.
	Conversation string
	// Included counts the history messages that made the window, prompt
	// excluded.
	Included int
	Tokens   int
}

// BuildWindow walks prior history from most recent to oldest, starting the
// running total at the prompt's own count. A message's tokens are added before
// the limit check, and the message that pushes the total over maxTokens is
// itself excluded, along with everything older. Switching to a truncate-the-
// overflowing-message policy would silently change which messages reach the
// model, so this exclusion order is load-bearing.
//
// The prompt is always included, even when it alone exceeds maxTokens.
func BuildWindow(prompt Unit, newestFirst []Unit, maxTokens int) (Window, error) {
	if maxTokens <= 0 {
		return Window{}, fmt.Errorf("build window: max tokens must be positive, got %d", maxTokens)
	}

	total := prompt.Tokens
	var included []Unit
	for _, u := range newestFirst {
		total += u.Tokens
		if total > maxTokens {
			total -= u.Tokens
			break
		}
		included = append(included, u)
	}

	// Invert back to chronological order, prompt last.
	lines := make([]string, 0, len(included)+1)
	for i := len(included) - 1; i >= 0; i-- {
		lines = append(lines, included[i].Text)
	}
	lines = append(lines, prompt.Text)

	return Window{
		Conversation: strings.Join(lines, "\n"),
		Included:     len(included),
		Tokens:       total,
	}, nil
}
