package utils

import (
	"golang.org/x/crypto/bcrypt"
)

// HashKey bcrypt-hashes a secret for at-rest storage.
func HashKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CompareKey reports whether key matches a stored bcrypt hash.
func CompareKey(hash, key string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}
