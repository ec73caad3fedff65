package pkg

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const DefaultPasswordHashCost = 12

func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, DefaultPasswordHashCost)
}

func HashPasswordWithCost(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return "", fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPasswordHash is false for malformed hashes as well.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
