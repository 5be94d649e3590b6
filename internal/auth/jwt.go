package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	RoleCliente        = "CLIENTE"
	RoleMassoterapeuta = "MASSOTERAPEUTA"
)

type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

func BuildJWT(secret []byte, userID int64, role string, exp time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(exp)),
		},
		UserID: userID,
		Role:   role,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func ParseJWT(secret []byte, tokenString string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}

// Claims de ação por e-mail (confirmação de cadastro e redefinição de senha).
// O e-mail vai no Subject e o propósito em Purpose, para um token não valer pelo outro.
type EmailTokenClaims struct {
	jwt.RegisteredClaims
	Purpose string `json:"purpose"`
}

const (
	PurposeConfirmEmail  = "confirm_email"
	PurposeResetPassword = "reset_password"
)

// BuildEmailToken gera um token de uso único (por expiração) para ações via e-mail.
func BuildEmailToken(secret []byte, email, purpose string, exp time.Duration) (string, error) {
	now := time.Now()
	claims := EmailTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(exp)),
		},
		Purpose: purpose,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

// ParseEmailToken valida o token e devolve o e-mail quando o propósito confere.
func ParseEmailToken(secret []byte, tokenString, purpose string) (string, error) {
	t, err := jwt.ParseWithClaims(tokenString, &EmailTokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	c, ok := t.Claims.(*EmailTokenClaims)
	if !ok || !t.Valid || c.Purpose != purpose || c.Subject == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return c.Subject, nil
}
