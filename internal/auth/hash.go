package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// Custo acima do default do bcrypt; senhas de conta de saúde.
const bcryptCost = 12

// HashPassword gera o hash bcrypt da senha em texto puro.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword confere a senha contra o hash armazenado.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
