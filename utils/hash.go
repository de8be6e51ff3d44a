package utils

import "golang.org/x/crypto/bcrypt"

const bcryptCost = 12

// HashPassword hashes a raw password using bcrypt. The salt is embedded
// in the digest, so verification needs only the stored value.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

// CheckPasswordHash compares a raw password and a hashed password.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
