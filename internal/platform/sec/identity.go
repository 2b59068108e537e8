// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # Request Identity

// Identity is the resolved caller of a request. It is either [Anonymous] or
// [Authenticated]; no other implementations exist.
type Identity interface {
	// IsAuthenticated reports whether the caller presented a valid session.
	IsAuthenticated() bool

	identity()
}

// Anonymous is the identity of a caller without a valid session token.
type Anonymous struct{}

// IsAuthenticated implements [Identity].
func (Anonymous) IsAuthenticated() bool { return false }

func (Anonymous) identity() {}

// Authenticated is the identity of a caller whose token resolved to a stored user.
type Authenticated struct {
	UserID int64
	Phone  string
	Email  string
	Name   string
}

// IsAuthenticated implements [Identity].
func (Authenticated) IsAuthenticated() bool { return true }

func (Authenticated) identity() {}

// AsAuthenticated unwraps identity into its [Authenticated] variant.
func AsAuthenticated(identity Identity) (Authenticated, bool) {
	authenticated, ok := identity.(Authenticated)
	return authenticated, ok
}
