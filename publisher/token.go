package publisher

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// authScheme is the Authorization header scheme the Ghost admin API expects.
	authScheme = "Ghost"

	tokenLifetime = 5 * time.Minute
	tokenAudience = "/admin/"
)

// timeNow is swapped out in tests.
var timeNow = time.Now

// mintToken builds a short-lived admin JWT from the "<key_id>:<hex_secret>"
// admin key. Tokens are minted fresh for every privileged call and never
// cached; Ghost invalidates them after five minutes regardless.
func mintToken(adminKey string, now time.Time) (string, error) {
	id, secretHex, ok := strings.Cut(adminKey, ":")
	if !ok || id == "" || secretHex == "" {
		return "", &ConfigError{Field: "ghost_admin_key", Reason: "must be <key_id>:<hex_secret>"}
	}
	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return "", &ConfigError{Field: "ghost_admin_key", Reason: "secret is not valid hex"}
	}

	claims := jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(tokenLifetime).Unix(),
		"aud": tokenAudience,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = id
	return token.SignedString(secret)
}

// authHeader mints a fresh token and formats the Authorization header value.
func authHeader(adminKey string) (string, error) {
	token, err := mintToken(adminKey, timeNow())
	if err != nil {
		return "", err
	}
	return authScheme + " " + token, nil
}
