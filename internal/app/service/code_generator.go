package service

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// Alphabet is the set short codes are drawn from.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultCodeLength is the length of generated short codes.
const DefaultCodeLength = 6

var errEmptyAlphabet = errors.New("code generator: empty alphabet")

// GenerateCode returns length characters picked uniformly from alphabet
// using crypto/rand. Bytes that would bias the distribution are rejected.
func GenerateCode(length int, alphabet string) (string, error) {
	n := len(alphabet)
	if n == 0 || n > 256 {
		return "", errEmptyAlphabet
	}
	if length <= 0 {
		return "", fmt.Errorf("code generator: invalid length %d", length)
	}

	limit := 256 - (256 % n)
	out := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("code generator: read random: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%n])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
