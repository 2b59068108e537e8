// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dobalito/api/internal/platform/apperr"
	"github.com/dobalito/api/internal/platform/constants"
	"github.com/dobalito/api/internal/platform/ctxutil"
	"github.com/dobalito/api/internal/platform/respond"
	"github.com/dobalito/api/internal/platform/sec"
)

// IdentityResolver turns a raw session token into a caller identity.
//
// Implementations return [sec.Anonymous] for any token that does not resolve;
// they never fail the request.
type IdentityResolver interface {
	ResolveIdentity(context context.Context, token string) sec.Identity
}

// Authenticate resolves the caller once per request and stores it in the context.
//
// # Flow
//  1. Read the session cookie; fall back to 'Authorization: Bearer <token>'.
//  2. No token means [sec.Anonymous].
//  3. Otherwise ask the [IdentityResolver]; invalid tokens also yield [sec.Anonymous].
//  4. Inject the [sec.Identity] into the request context for downstream use.
func Authenticate(resolver IdentityResolver, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			var identity sec.Identity = sec.Anonymous{}

			if token := SessionToken(request, cookieName); token != "" {
				identity = resolver.ResolveIdentity(request.Context(), token)
			}

			if caller, ok := sec.AsAuthenticated(identity); ok {
				recordUser(request.Context(), caller.UserID)
			}

			ctx := ctxutil.WithIdentity(request.Context(), identity)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// SessionToken extracts the raw session token from the cookie or the
// Authorization header, in that order. It returns "" when neither is present.
func SessionToken(request *http.Request, cookieName string) string {
	if cookie, err := request.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := request.Header.Get(constants.HeaderAuthorization)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, constants.AuthorizationScheme) {
		return ""
	}

	return strings.TrimSpace(token)
}

// RequireAuth blocks requests that are not authenticated.
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if !ctxutil.GetIdentity(request.Context()).IsAuthenticated() {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}
