package predictor

import "errors"

var (
	// ErrClassifierUnavailable indicates a non-200 classifier response.
	ErrClassifierUnavailable = errors.New("classifier unavailable")

	// ErrUnknownBand indicates a classifier answer outside the known
	// CF bands.
	ErrUnknownBand = errors.New("unknown cf band")
)
