// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements sign-in for the Dobalito marketplace.

Users sign in by proving ownership of a phone number through a one-time SMS
code, or with an email and password. Either way a signed session token is
issued and carried in an HttpOnly cookie.

# Architecture

  - Service: Orchestrates the code engine, SMS delivery, user upsert and token issuance.
  - Repository: [UserRepository] over PostgreSQL; [RevocationStore] over Redis.
  - Identity: [Service.ResolveIdentity] turns a token into a [sec.Identity] once per request.
*/
package auth

import (
	"fmt"
	"time"

	"github.com/dobalito/api/pkg/pointer"
)

// # Domain Entities

// User is a registered member of the marketplace.
//
// Phone accounts carry a placeholder email until the user sets a real one;
// email accounts have no phone.
type User struct {
	ID           int64
	Name         string
	Phone        *string
	Email        *string
	PasswordHash string
	Avatar       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the client-facing view of a [User].
type PublicUser struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

// Public projects the user into its transport view. Absent values become "".
func (user *User) Public() PublicUser {
	return PublicUser{
		ID:     user.ID,
		Name:   user.Name,
		Phone:  pointer.Val(user.Phone),
		Email:  pointer.Val(user.Email),
		Avatar: pointer.Val(user.Avatar),
	}
}

// PlaceholderEmail is the synthetic email given to accounts created by phone.
func PlaceholderEmail(phone string) string {
	return fmt.Sprintf("temp_%s@%s", phone, PlaceholderEmailDomain)
}

// # Field Identifiers

const (
	FieldPhone    = "phone"
	FieldCode     = "code"
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldUser     = "user"
)
