package token

import (
	"errors"
	"time"

	"marketplace/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
)

// HS256 のアクセストークンを発行する
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewJWTIssuer(secret string, ttl time.Duration) (*JWTIssuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &JWTIssuer{secret: []byte(secret), ttl: ttl}, nil
}

// jwt発行（sub / role / iat / exp）
func (i *JWTIssuer) Issue(userID int64, role model.Role, now time.Time) (string, time.Time, error) {
	exp := now.Add(i.ttl)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}
