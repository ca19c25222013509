package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/warp/hydration-engine/generic"
)

// AccountHeader carries the caller's account when no JWT secret is configured.
const AccountHeader = "X-Account-ID"

var errNoIdentity = errors.New("missing caller identity")

type accountKey struct{}

// Identity resolves the calling account for /api/me routes.
//
// With a secret, the caller must send "Authorization: Bearer <jwt>"
// signed with HS256; the account is the sub claim. Without one, the
// account is read from the X-Account-ID header and trusted as-is.
type Identity struct {
	secret []byte
}

func NewIdentity(secret string) *Identity {
	return &Identity{secret: []byte(secret)}
}

// Middleware rejects requests without an identity with 401.
func (id *Identity) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, err := id.resolve(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized", err)
			return
		}
		ctx := context.WithValue(r.Context(), accountKey{}, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (id *Identity) resolve(r *http.Request) (generic.AccountID, error) {
	if len(id.secret) == 0 {
		account := strings.TrimSpace(r.Header.Get(AccountHeader))
		if account == "" {
			return "", errNoIdentity
		}
		return generic.AccountID(account), nil
	}

	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return "", errNoIdentity
	}

	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return id.secret, nil
	}); err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("invalid token: %w", errNoIdentity)
	}
	return generic.AccountID(claims.Subject), nil
}

// accountFrom returns the account stored by Middleware.
func accountFrom(ctx context.Context) generic.AccountID {
	account, _ := ctx.Value(accountKey{}).(generic.AccountID)
	return account
}
