// Package token counts text tokens with a fixed tiktoken encoding. Every
// budget comparison in the application must go through the same Counter so
// counts and budget constants share one scheme.
package token

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

const DefaultEncoding = "cl100k_base"

// Counter converts text to a token count. It is immutable after construction
// and safe for concurrent use without synchronization.
type Counter struct {
	encoding *tiktoken.Tiktoken
	name     string
}

func NewCounter(encodingName string) (*Counter, error) {
	if encodingName == "" {
		encodingName = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %q: %w", encodingName, err)
	}
	return &Counter{encoding: enc, name: encodingName}, nil
}

// Count returns the number of tokens in text. An empty string counts zero.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.encoding.Encode(text, nil, nil))
}

func (c *Counter) EncodingName() string {
	return c.name
}
