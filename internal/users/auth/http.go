// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dobalito/api/internal/phone"
	"github.com/dobalito/api/internal/platform/constants"
	"github.com/dobalito/api/internal/platform/ctxutil"
	"github.com/dobalito/api/internal/platform/middleware"
	requestutil "github.com/dobalito/api/internal/platform/request"
	"github.com/dobalito/api/internal/platform/respond"
	"github.com/dobalito/api/internal/platform/validate"
)

// # Definitions & Constructors

// CookieConfig controls the session cookie written on login.
type CookieConfig struct {
	Name   string
	Secure bool
}

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// Sign-in entry points only: phone codes, email/password and logout.
// Response bodies are flat objects carrying "success" at the top level.
type Handler struct {
	authService *Service
	cookie      CookieConfig
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service, cookie CookieConfig) *Handler {
	return &Handler{authService: service, cookie: cookie}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /send-verification-code : Issues and texts a code.
//   - POST /verify-code            : Redeems a code and sets the session cookie.
//   - GET  /check-code-status      : Reports whether a phone has a live code.
//   - GET  /code-history           : Every code of a phone (only with code echo).
//   - POST /register, /login       : Email/password accounts.
//   - POST /logout                 : Clears the session cookie.
//   - GET  /me                     : Current user (authenticated).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/send-verification-code", handler.sendVerificationCode)
	router.Post("/verify-code", handler.verifyCode)
	router.Get("/check-code-status", handler.checkCodeStatus)
	if handler.authService.CodeEchoEnabled() {
		router.Get("/code-history", handler.codeHistory)
	}
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/logout", handler.logout)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/me", handler.me)
	})

	return router
}

// # Request Payloads

type sendCodeRequest struct {
	Phone string `json:"phone"`
}

type verifyCodeRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
	Name  string `json:"name"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// # Response Payloads

type sendCodeResponse struct {
	Success bool `json:"success"`
	*CodeIssued
}

type userResponse struct {
	Success bool       `json:"success"`
	User    PublicUser `json:"user"`
}

type codeStatusResponse struct {
	Success bool `json:"success"`
	*CodeStatus
}

type codeHistoryResponse struct {
	Success bool         `json:"success"`
	Phone   string       `json:"phone"`
	Codes   []CodeRecord `json:"codes"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

/*
SendVerificationCode issues a one-time code for a phone number.

POST /api/v1/auth/send-verification-code

Request:
  - Body: sendCodeRequest (Phone)

Response:
  - 200: sendCodeResponse: Phone, expiry and attempt policy
  - 400: Missing or malformed phone
  - 429: Too many codes requested for this phone
  - 500: SMS_DELIVERY_FAILED or STORAGE_ERROR
*/
func (handler *Handler) sendVerificationCode(writer http.ResponseWriter, request *http.Request) {
	var input sendCodeRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldPhone, input.Phone)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	issued, err := handler.authService.SendCode(request.Context(), input.Phone)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusOK, sendCodeResponse{Success: true, CodeIssued: issued})
}

/*
VerifyCode redeems a code and establishes a session.

POST /api/v1/auth/verify-code

Request:
  - Body: verifyCodeRequest (Phone, Code, Name?)

Response:
  - 200: userResponse + session cookie
  - 400: Missing phone or code
  - 401: Invalid or expired code
*/
func (handler *Handler) verifyCode(writer http.ResponseWriter, request *http.Request) {
	var input verifyCodeRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldPhone, input.Phone).
		Required(FieldCode, input.Code).
		MaxLen(FieldName, input.Name, MaxNameLength)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.VerifyAndLogin(request.Context(), VerifyInput{
		Phone: input.Phone,
		Code:  input.Code,
		Name:  input.Name,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookie(writer, session.Token)
	respond.JSON(writer, http.StatusOK, userResponse{Success: true, User: session.User.Public()})
}

/*
CheckCodeStatus reports whether a phone has a code it can still redeem.

GET /api/v1/auth/check-code-status?phone=

Response:
  - 200: codeStatusResponse
  - 400: Missing or malformed phone
*/
func (handler *Handler) checkCodeStatus(writer http.ResponseWriter, request *http.Request) {
	rawPhone := request.URL.Query().Get(FieldPhone)

	validator := &validate.Validator{}
	validator.Required(FieldPhone, rawPhone)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	status, err := handler.authService.CheckCodeStatus(request.Context(), rawPhone)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusOK, codeStatusResponse{Success: true, CodeStatus: status})
}

/*
CodeHistory lists the stored codes of a phone for local testing.

GET /api/v1/auth/code-history?phone=

Mounted only when code echo is enabled.
*/
func (handler *Handler) codeHistory(writer http.ResponseWriter, request *http.Request) {
	rawPhone := request.URL.Query().Get(FieldPhone)

	validator := &validate.Validator{}
	validator.Required(FieldPhone, rawPhone)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	codes, err := handler.authService.CodeHistory(request.Context(), rawPhone)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusOK, codeHistoryResponse{
		Success: true,
		Phone:   phone.NormalizePhone(rawPhone),
		Codes:   codes,
	})
}

/*
Register handles the creation of a new email account.

POST /api/v1/auth/register

Request:
  - Body: registerRequest (Name, Email, Password)

Response:
  - 201: userResponse
  - 400: Validation failure
  - 409: Email already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, MaxNameLength).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), RegisterInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusCreated, userResponse{Success: true, User: user.Public()})
}

/*
Login authenticates an email account and establishes a session.

POST /api/v1/auth/login

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: userResponse + session cookie
  - 401: Invalid credentials
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookie(writer, session.Token)
	respond.JSON(writer, http.StatusOK, userResponse{Success: true, User: session.User.Public()})
}

/*
Logout terminates the current session.

POST /api/v1/auth/logout

Description: Revokes the presented token (when revocation is enabled) and
expires the session cookie. Always succeeds for the client.

Response:
  - 200: messageResponse
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	token := middleware.SessionToken(request, handler.cookie.Name)
	if err := handler.authService.Logout(request.Context(), token); err != nil {
		ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "logout_revocation_failed", slog.Any("error", err))
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     handler.cookie.Name,
		Value:    "",
		Path:     constants.SessionCookiePath,
		MaxAge:   -1,
		Secure:   handler.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	respond.JSON(writer, http.StatusOK, messageResponse{Success: true, Message: "Logged out"})
}

/*
Me returns the authenticated caller's account.

GET /api/v1/auth/me

Response:
  - 200: userResponse
  - 401: Not authenticated
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Me(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusOK, userResponse{Success: true, User: user.Public()})
}

// setSessionCookie writes a browser-session cookie (no Max-Age) carrying token.
func (handler *Handler) setSessionCookie(writer http.ResponseWriter, token string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     handler.cookie.Name,
		Value:    token,
		Path:     constants.SessionCookiePath,
		Secure:   handler.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
