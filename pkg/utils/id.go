package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// GenerateID returns a random hex string of n bytes.
func GenerateID(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("id length must be positive")
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func NewUUID() string {
	return uuid.NewString()
}
