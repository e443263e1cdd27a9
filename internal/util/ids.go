package util

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// NewCorrelationID returns a random URL-safe identifier used to tie an
// annotation request to its result message.
func NewCorrelationID() string {
	id, err := gonanoid.New()
	if err != nil {
		// crypto/rand failure; nothing sensible to fall back to
		panic(err)
	}
	return id
}
