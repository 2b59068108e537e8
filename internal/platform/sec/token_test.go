// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dobalito/api/internal/platform/sec"
)

var testConfig = sec.TokenConfig{
	Secret: []byte("0123456789abcdef0123456789abcdef"),
	TTL:    time.Hour,
	Issuer: "dobalito.test",
}

type fakeClock struct{ current time.Time }

func (clock *fakeClock) Now() time.Time { return clock.current }

func newIssuer(t *testing.T) (*sec.TokenIssuer, *fakeClock) {
	t.Helper()
	clock := &fakeClock{current: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	issuer, err := sec.NewTokenIssuerWithClock(testConfig, clock.Now)
	require.NoError(t, err)
	return issuer, clock
}

/*
TestTokenIssuer_RoundTrip verifies that an issued token validates and exposes its claims.
*/
func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, clock := newIssuer(t)

	token, err := issuer.Issue("15550102030", 42, "Alice")
	require.NoError(t, err)

	assert.True(t, issuer.Validate(token))
	assert.True(t, issuer.ValidateFor(token, "15550102030"))
	assert.False(t, issuer.ValidateFor(token, "15550109999"))

	subject, err := issuer.Subject(token)
	require.NoError(t, err)
	assert.Equal(t, "15550102030", subject)

	userID, err := issuer.UserID(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)

	name, err := issuer.Name(token)
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)

	expiresAt, err := issuer.ExpiresAt(token)
	require.NoError(t, err)
	assert.True(t, expiresAt.Equal(clock.current.Add(time.Hour)))

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, sec.TokenTypePhone, claims.Type)
}

/*
TestTokenIssuer_Expiry checks that a token stops validating once its TTL passes.
*/
func TestTokenIssuer_Expiry(t *testing.T) {
	issuer, clock := newIssuer(t)

	token, err := issuer.Issue("15550102030", 1, "Bob")
	require.NoError(t, err)

	clock.current = clock.current.Add(59 * time.Minute)
	assert.True(t, issuer.Validate(token))

	clock.current = clock.current.Add(2 * time.Minute)
	assert.False(t, issuer.Validate(token))

	_, err = issuer.Subject(token)
	assert.ErrorIs(t, err, sec.ErrInvalidToken)
}

/*
TestTokenIssuer_Rejects covers forged, malformed and foreign tokens.
*/
func TestTokenIssuer_Rejects(t *testing.T) {
	issuer, clock := newIssuer(t)

	token, err := issuer.Issue("15550102030", 7, "Carol")
	require.NoError(t, err)

	other, err := sec.NewTokenIssuerWithClock(sec.TokenConfig{
		Secret: []byte("ffffffffffffffffffffffffffffffff"),
		TTL:    time.Hour,
		Issuer: testConfig.Issuer,
	}, clock.Now)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"tampered_signature", tampered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, issuer.Validate(tt.token))
		})
	}

	t.Run("other_secret", func(t *testing.T) {
		assert.False(t, other.Validate(token))
	})
}

/*
TestTokenIssuer_Email verifies that password sessions carry the email as subject.
*/
func TestTokenIssuer_Email(t *testing.T) {
	issuer, _ := newIssuer(t)

	token, err := issuer.IssueForEmail("dana@example.com", 9, "Dana")
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", claims.Subject)
	assert.Equal(t, sec.TokenTypeEmail, claims.Type)
	assert.Empty(t, claims.Phone)
}

/*
TestNewTokenIssuer_Config rejects unusable signing configuration.
*/
func TestNewTokenIssuer_Config(t *testing.T) {
	_, err := sec.NewTokenIssuer(sec.TokenConfig{TTL: time.Hour})
	assert.Error(t, err)

	_, err = sec.NewTokenIssuer(sec.TokenConfig{Secret: []byte("x")})
	assert.Error(t, err)
}

/*
TestPasswordHash covers the bcrypt helpers and the phone-only marker.
*/
func TestPasswordHash(t *testing.T) {
	hash, err := sec.HashPassword("correct horse")
	require.NoError(t, err)

	assert.True(t, sec.CheckPasswordHash("correct horse", hash))
	assert.False(t, sec.CheckPasswordHash("wrong", hash))
	assert.False(t, sec.CheckPasswordHash("phone_auth", sec.PhoneAuthPasswordMarker))
}
