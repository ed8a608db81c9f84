package evidence

import (
	"errors"
	"time"
)

// DigestSize is the required length of an evidence content digest.
const DigestSize = 32

const (
	// MinWeight is the lowest accepted importance weight.
	MinWeight = 1
	// MaxWeight is the highest accepted importance weight.
	MaxWeight = 10
)

var (
	// ErrNotFound signals the referenced evidence item does not exist.
	ErrNotFound = errors.New("evidence: not found")
	// ErrInvalidWeight signals a weight outside the accepted 1..10 range.
	ErrInvalidWeight = errors.New("evidence: weight must be between 1 and 10")
	// ErrInvalidDigest signals a content digest that is not 32 bytes.
	ErrInvalidDigest = errors.New("evidence: digest must be 32 bytes")
)

// Item mirrors the evidence table. Items are immutable once written; the
// (DisputeID, Seq) pair identifies an item, with Seq assigned 1-based per
// dispute.
type Item struct {
	DisputeID       int64
	Seq             int
	SubmitterID     string
	Digest          []byte
	Weight          int
	SubmittedHeight int64
	CreatedAt       time.Time
}

// Validate checks the submission constraints on weight and digest.
func Validate(digest []byte, weight int) error {
	if weight < MinWeight || weight > MaxWeight {
		return ErrInvalidWeight
	}
	if len(digest) != DigestSize {
		return ErrInvalidDigest
	}
	return nil
}
