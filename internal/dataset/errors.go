package dataset

import "errors"

var (
	// ErrFetch indicates the dataset could not be retrieved from its source.
	ErrFetch = errors.New("dataset: fetch failed")
	// ErrMalformed indicates the payload is not the expected JSON shape.
	ErrMalformed = errors.New("dataset: malformed payload")
	// ErrInvalid indicates the payload failed schema validation.
	ErrInvalid = errors.New("dataset: invalid payload")
	// ErrNotLoaded is returned while no snapshot has been published.
	ErrNotLoaded = errors.New("dataset: not loaded")
	// ErrMerchantNotFound is returned for an unknown merchant key.
	ErrMerchantNotFound = errors.New("dataset: merchant not found")
)
