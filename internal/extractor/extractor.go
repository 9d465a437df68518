// Package extractor turns a voice clip into product drafts through an
// external language model. Results are best effort and never validated
// beyond their shape.
package extractor

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-voice-intake/internal/model"
)

// Extractor returns the drafts spoken in audio. An empty result means
// nothing could be extracted and is not an error.
type Extractor interface {
	Extract(ctx context.Context, audio []byte, mimeType string) ([]model.ProductDraft, error)
}

// StatusError is a non-2xx answer from the model endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("extractor responded %d: %s", e.StatusCode, e.Body)
}
