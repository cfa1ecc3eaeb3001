package identity

import "golang.org/x/crypto/bcrypt"

// HashSecret hashes a password or one-time code with bcrypt.
func HashSecret(secret string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
}

// VerifySecret reports whether the secret matches the stored hash.
func VerifySecret(hash []byte, secret string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(secret)) == nil
}
