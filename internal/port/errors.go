package port

import (
	"errors"
	"fmt"
)

// Sentinel errors used across ports.
var (
	ErrSourceNotFound  = errors.New("recommendation source not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrTokenExpired    = errors.New("token expired")
	ErrTokenInvalid    = errors.New("token invalid")
	ErrUserNotFound    = errors.New("user not found")
	ErrContentNotFound = errors.New("content not found")
)

// DimensionMismatchError reports stored embeddings of inconsistent length
// inside a single taste-vector computation. This is a data-integrity failure:
// vectors are never silently truncated or padded.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: want %d, got %d", e.Want, e.Got)
}

// IsDimensionMismatch reports whether err is a DimensionMismatchError.
func IsDimensionMismatch(err error) bool {
	var dm *DimensionMismatchError
	return errors.As(err, &dm)
}
