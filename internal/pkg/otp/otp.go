// Package otp generates fixed-length numeric one-time codes.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const digits = "0123456789"

// Generator produces numeric codes of a fixed length from crypto/rand.
type Generator struct {
	length int
}

func NewGenerator(length int) *Generator {
	if length <= 0 {
		length = 6
	}
	return &Generator{length: length}
}

// Generate returns a code of the configured length, each digit drawn
// uniformly from 0-9.
func (g *Generator) Generate() (string, error) {
	b := make([]byte, g.length)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", fmt.Errorf("generate otp: %w", err)
		}
		b[i] = digits[n.Int64()]
	}
	return string(b), nil
}
