// Package identity resolves the caller's user id from token claims.
// Every caller in the service goes through UserID so that ownership filtering
// always agrees on who "self" is.
package identity

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoIdentity is returned when no claim carries a user id
var ErrNoIdentity = errors.New("no user identity in token")

// claimPrecedence is the order claims are consulted in. The registered subject wins.
var claimPrecedence = []string{"sub", "userId", "user_id"}

type contextKey string

const userIDKey contextKey = "user_id"

// UserID returns the canonical user id carried by claims
func UserID(claims jwt.MapClaims) (string, error) {
	for _, name := range claimPrecedence {
		v, ok := claims[name]
		if !ok || v == nil {
			continue
		}
		var id string
		switch t := v.(type) {
		case string:
			id = strings.TrimSpace(t)
		case float64:
			id = strconv.FormatFloat(t, 'f', -1, 64)
		case int64:
			id = strconv.FormatInt(t, 10)
		}
		if id != "" {
			return id, nil
		}
	}
	return "", ErrNoIdentity
}

// WithUserID stores the resolved user id in ctx
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// FromContext returns the user id stored by WithUserID
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}
