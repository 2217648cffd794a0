package session

import (
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v4"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// Aliasing it so we can use it in the struct literal for composition
type jwtRegisteredClaims = jwt.RegisteredClaims

type sealedClaims struct {
	Token string `json:"tok"`
	jwtRegisteredClaims
}

// JWTSealer wraps the persisted token in an HS256 JWT. There's no expiry: whether the
// backend token is still good is the backend's call.
type JWTSealer struct {
	Secret []byte
}

func (s *JWTSealer) Seal(token string) (string, error) {
	claims := &sealedClaims{
		Token: token,
		jwtRegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	sealed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString(s.Secret)
	if err != nil {
		return "", fmt.Errorf("couldn't sign session JWT: %w", err)
	}
	return sealed, nil
}

func (s *JWTSealer) Open(sealed string) (string, error) {
	decoder := jwt.NewParser(jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}))

	claims := new(sealedClaims)

	token, err := decoder.ParseWithClaims(sealed, claims, func(token *jwt.Token) (interface{}, error) {
		return s.Secret, nil
	})

	if err != nil || !token.Valid || claims.Token == "" {
		return "", ErrInvalidSession
	}

	return claims.Token, nil
}

// The backend's token is a JWT whose payload names the user. We never verify it (we don't
// hold the backend's key), we only read who it was issued to for owner-scoped lists.
func userIDFromToken(raw string) string {
	if raw == "" {
		return ""
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return ""
	}

	for _, name := range []string{"userId", "sub"} {
		if id, ok := claims[name].(string); ok && id != "" {
			return id
		}
	}
	return ""
}
