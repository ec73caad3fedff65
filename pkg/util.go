package pkg

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"os"
)

// GenerateRandomString returns a URL-safe, base64 encoded
// securely generated random string, made of n random bytes.
func GenerateRandomString(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("random string length must be positive")
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func isStdStream(w io.Writer) bool {
	return w == os.Stdout || w == os.Stderr
}
