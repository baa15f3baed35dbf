package publisher

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestMintTokenClaims(t *testing.T) {
	secret := []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x11, 0x22, 0x33}
	adminKey := "abc123:" + hex.EncodeToString(secret)
	now := time.Unix(1700000000, 0)

	signed, err := mintToken(adminKey, now)
	if err != nil {
		t.Fatalf("mintToken() error: %v", err)
	}

	parsed, err := jwt.Parse(signed,
		func(tok *jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithAudience("/admin/"),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		t.Fatalf("parsing minted token: %v", err)
	}

	if kid, _ := parsed.Header["kid"].(string); kid != "abc123" {
		t.Errorf("kid = %q, want %q", kid, "abc123")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("claims are %T, want MapClaims", parsed.Claims)
	}
	iat := int64(claims["iat"].(float64))
	exp := int64(claims["exp"].(float64))
	if exp-iat != 300 {
		t.Errorf("exp-iat = %d, want 300", exp-iat)
	}
	if iat != now.Unix() {
		t.Errorf("iat = %d, want %d", iat, now.Unix())
	}
}

func TestMintTokenRejectsMalformedCredentials(t *testing.T) {
	tests := []struct {
		name     string
		adminKey string
	}{
		{"missing delimiter", "abcdef0123456789"},
		{"non-hex secret", "id:nothex"},
		{"empty secret", "id:"},
		{"empty id", ":deadbeef"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := mintToken(tt.adminKey, time.Now())
			if token != "" {
				t.Errorf("mintToken() returned a token for %q", tt.adminKey)
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("error = %v, want ConfigError", err)
			}
		})
	}
}

func TestAuthHeaderScheme(t *testing.T) {
	header, err := authHeader("id:deadbeef")
	if err != nil {
		t.Fatalf("authHeader() error: %v", err)
	}
	if !strings.HasPrefix(header, "Ghost ") {
		t.Errorf("header = %q, want Ghost scheme prefix", header)
	}
}
