package genai

import "errors"

var (
	// ErrModelUnavailable indicates a non-200 response from the model
	// endpoint.
	ErrModelUnavailable = errors.New("model endpoint unavailable")

	// ErrEmptyResponse indicates a response with no candidates.
	ErrEmptyResponse = errors.New("empty model response")

	// ErrMalformedInsights indicates model output that could not be
	// parsed into the advisory fields.
	ErrMalformedInsights = errors.New("malformed insights payload")
)
