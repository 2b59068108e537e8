// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and session token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, Token Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer. Token issuance and validation are pure functions of the
// token string, the configured secret and the clock, so a [TokenIssuer] is safe
// for concurrent use.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that are malformed, forged, or expired.
var ErrInvalidToken = errors.New("sec: invalid or expired token")

// # Token Types

// TokenType discriminates how a session was established.
type TokenType string

const (
	// TokenTypePhone marks sessions created through a verified SMS code.
	TokenTypePhone TokenType = "phone_auth"

	// TokenTypeEmail marks sessions created through email and password.
	TokenTypeEmail TokenType = "email_auth"
)

// SessionClaims represents the payload embedded inside a session token.
//
// The subject is the login identifier: the normalized phone for phone sessions
// and the email address for password sessions.
type SessionClaims struct {
	jwt.RegisteredClaims

	UserID int64     `json:"userId"`
	Phone  string    `json:"phone,omitempty"`
	Name   string    `json:"name"`
	Type   TokenType `json:"type"`
}

// # Configuration

// TokenConfig is the immutable signing configuration, loaded once at startup.
type TokenConfig struct {
	// Secret is the HMAC-SHA256 key.
	Secret []byte
	// TTL is how long an issued token stays valid.
	TTL time.Duration
	// Issuer is placed in the 'iss' claim and required on validation.
	Issuer string
}

// TokenIssuer creates and verifies HS256 session tokens.
type TokenIssuer struct {
	config TokenConfig
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenIssuer builds a [TokenIssuer] from config using the wall clock.
func NewTokenIssuer(config TokenConfig) (*TokenIssuer, error) {
	return NewTokenIssuerWithClock(config, time.Now)
}

// NewTokenIssuerWithClock is [NewTokenIssuer] with an injectable time source.
func NewTokenIssuerWithClock(config TokenConfig, now func() time.Time) (*TokenIssuer, error) {
	if len(config.Secret) == 0 {
		return nil, errors.New("sec: token secret must not be empty")
	}
	if config.TTL <= 0 {
		return nil, errors.New("sec: token ttl must be positive")
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(now),
	}
	if config.Issuer != "" {
		options = append(options, jwt.WithIssuer(config.Issuer))
	}

	return &TokenIssuer{
		config: config,
		now:    now,
		parser: jwt.NewParser(options...),
	}, nil
}

// TTL returns the configured token lifetime.
func (issuer *TokenIssuer) TTL() time.Duration {
	return issuer.config.TTL
}

// # Issuance

// Issue mints a phone session token for the given user.
func (issuer *TokenIssuer) Issue(phone string, userID int64, name string) (string, error) {
	return issuer.sign(SessionClaims{
		RegisteredClaims: issuer.registered(phone),
		UserID:           userID,
		Phone:            phone,
		Name:             name,
		Type:             TokenTypePhone,
	})
}

// IssueForEmail mints a password session token whose subject is the email.
func (issuer *TokenIssuer) IssueForEmail(email string, userID int64, name string) (string, error) {
	return issuer.sign(SessionClaims{
		RegisteredClaims: issuer.registered(email),
		UserID:           userID,
		Name:             name,
		Type:             TokenTypeEmail,
	})
}

func (issuer *TokenIssuer) registered(subject string) jwt.RegisteredClaims {
	issuedAt := issuer.now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer.config.Issuer,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(issuer.config.TTL)),
	}
}

func (issuer *TokenIssuer) sign(claims SessionClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(issuer.config.Secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}
	return signed, nil
}

// # Validation

// Parse verifies the signature and expiry of tokenString and returns its claims.
// Any failure is reported as [ErrInvalidToken].
func (issuer *TokenIssuer) Parse(tokenString string) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &SessionClaims{}
	token, err := issuer.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return issuer.config.Secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Validate reports whether tokenString is authentic and unexpired.
func (issuer *TokenIssuer) Validate(tokenString string) bool {
	_, err := issuer.Parse(tokenString)
	return err == nil
}

// ValidateFor is [TokenIssuer.Validate] plus a subject equality check.
func (issuer *TokenIssuer) ValidateFor(tokenString, expectedSubject string) bool {
	claims, err := issuer.Parse(tokenString)
	if err != nil {
		return false
	}
	return claims.Subject == expectedSubject
}

// # Claim Accessors

// Subject returns the login identifier carried by the token.
func (issuer *TokenIssuer) Subject(tokenString string) (string, error) {
	claims, err := issuer.Parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// UserID returns the numeric user id carried by the token.
func (issuer *TokenIssuer) UserID(tokenString string) (int64, error) {
	claims, err := issuer.Parse(tokenString)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// Name returns the display name carried by the token.
func (issuer *TokenIssuer) Name(tokenString string) (string, error) {
	claims, err := issuer.Parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Name, nil
}

// ExpiresAt returns the expiry instant of the token.
func (issuer *TokenIssuer) ExpiresAt(tokenString string) (time.Time, error) {
	claims, err := issuer.Parse(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	return claims.ExpiresAt.Time, nil
}
