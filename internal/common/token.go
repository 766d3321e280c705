package common

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoUserID is returned when the API token carries no subject
var ErrNoUserID = errors.New("token has no subject")

// UserIDFromToken extracts the user id (the "sub" claim) from the API bearer
// token. The signature is not verified here; the backend verifies every
// request, the client only needs the id to tag push subscriptions.
func UserIDFromToken(token string) (string, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return "", ErrNoUserID
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("failed to read subject: %w", err)
	}
	if sub == "" {
		// some backends put the id under a custom claim
		if id, ok := claims["userId"].(string); ok && id != "" {
			return id, nil
		}
		return "", ErrNoUserID
	}
	return sub, nil
}
