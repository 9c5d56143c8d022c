package jobs

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// jobIDBytes gives 128 bits of entropy; the id is the only capability needed
// to read a job's result, so it must not be guessable.
const jobIDBytes = 16

// NewJobID creates a cryptographically random hex job identifier.
func NewJobID() (string, error) {
	b := make([]byte, jobIDBytes)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("jobs: generate id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
