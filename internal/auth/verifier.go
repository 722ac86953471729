package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nhle/kaizen/internal/model"
)

// Verifier validates provider-issued access tokens signed with a shared
// HS256 secret.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for secret.
func NewVerifier(secret string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("jwt secret must not be empty")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Verify checks the token signature and expiry and returns the session it
// describes. The subject claim is the user id.
func (v *Verifier) Verify(tokenString string) (model.Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return model.Session{}, fmt.Errorf("verifying access token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return model.Session{}, fmt.Errorf("invalid access token")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return model.Session{}, fmt.Errorf("access token has no subject")
	}

	sess := model.Session{UserID: sub}
	sess.Email, _ = claims["email"].(string)
	if meta, ok := claims["user_metadata"].(map[string]interface{}); ok {
		if name, _ := meta["full_name"].(string); name != "" {
			sess.Name = name
		} else if name, _ := meta["name"].(string); name != "" {
			sess.Name = name
		}
	}
	return sess, nil
}
