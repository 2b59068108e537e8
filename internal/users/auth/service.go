// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dobalito/api/internal/phone"
	"github.com/dobalito/api/internal/platform/apperr"
	"github.com/dobalito/api/internal/platform/dberr"
	"github.com/dobalito/api/internal/platform/sec"
	"github.com/dobalito/api/internal/sms"
	"github.com/dobalito/api/pkg/pointer"
)

// # Contracts & Types

// CodeEngine is the slice of [phone.Engine] the orchestrator drives.
type CodeEngine interface {
	RequestCode(context context.Context, phone string) (*phone.VerificationCode, error)
	VerifyCode(context context.Context, phone, code string) (*phone.VerificationCode, error)
	GetActiveCode(context context.Context, phone string) (*phone.VerificationCode, error)
	History(context context.Context, phone string) ([]*phone.VerificationCode, error)
}

// TokenProvider signs and parses session tokens. [*sec.TokenIssuer] implements it.
type TokenProvider interface {
	Issue(phone string, userID int64, name string) (string, error)
	IssueForEmail(email string, userID int64, name string) (string, error)
	Parse(token string) (*sec.SessionClaims, error)
	ExpiresAt(token string) (time.Time, error)
}

// Service implements the sign-in use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to code verification,
// token issuance or identity resolution must be reviewed with care.
type Service struct {
	userRepository  UserRepository
	codeEngine      CodeEngine
	sender          sms.Sender
	tokenProvider   TokenProvider
	revocationStore RevocationStore
	logger          *slog.Logger
	echoCode        bool
}

// Option customizes a [Service].
type Option func(*Service)

// WithCodeEcho returns issued codes in [CodeIssued]. Development only.
func WithCodeEcho(enabled bool) Option {
	return func(service *Service) { service.echoCode = enabled }
}

// WithRevocation enables logout revocation backed by store.
func WithRevocation(store RevocationStore) Option {
	return func(service *Service) { service.revocationStore = store }
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	engine CodeEngine,
	sender sms.Sender,
	tokens TokenProvider,
	logger *slog.Logger,
	options ...Option,
) *Service {
	service := &Service{
		userRepository: userRepo,
		codeEngine:     engine,
		sender:         sender,
		tokenProvider:  tokens,
		logger:         logger,
	}
	for _, option := range options {
		option(service)
	}
	return service
}

// # Phone Verification Flow

// CodeIssued describes a freshly sent verification code.
type CodeIssued struct {
	Phone            string    `json:"phone"`
	ExpiresAt        time.Time `json:"expiresAt"`
	ExpiresInMinutes int       `json:"expiresInMinutes"`
	AttemptsAllowed  int       `json:"attemptsAllowed"`
	Code             string    `json:"code,omitempty"`
}

/*
SendCode issues a verification code for phone and delivers it by SMS.

Description: The phone is normalized and format-checked before the engine is
asked for a code, so rate limiting only counts well-formed numbers.

Parameters:
  - context: context.Context
  - rawPhone: string (as typed by the user)

Returns:
  - *CodeIssued: Issuance metadata
  - error: Validation (400), RateLimited (429), DeliveryFailed or Storage (500)
*/
func (service *Service) SendCode(context context.Context, rawPhone string) (*CodeIssued, error) {
	normalized := phone.NormalizePhone(rawPhone)
	if !phone.IsValidPhoneFormat(normalized) {
		return nil, invalidPhoneError()
	}

	issued, err := service.codeEngine.RequestCode(context, normalized)
	if err != nil {
		return nil, mapCodeError(err)
	}

	validMinutes := int(phone.CodeTTL / time.Minute)
	if err := service.sender.Send(context, normalized, sms.VerificationMessage(issued.Code, validMinutes)); err != nil {
		return nil, apperr.DeliveryFailed(err)
	}

	result := &CodeIssued{
		Phone:            normalized,
		ExpiresAt:        issued.ExpiresAt,
		ExpiresInMinutes: validMinutes,
		AttemptsAllowed:  phone.MaxAttempts,
	}
	if service.echoCode {
		result.Code = issued.Code
	}
	return result, nil
}

// VerifyInput carries a code redemption attempt.
type VerifyInput struct {
	Phone string
	Code  string
	Name  string
}

// LoginResult is an established session.
type LoginResult struct {
	User  *User
	Token string
}

/*
VerifyAndLogin redeems a code and signs the phone's owner in.

Description: On success the user bound to the phone is created (name "User"
unless given, placeholder email) or, when a non-empty name is supplied, renamed.
A session token is then issued for the phone.

Parameters:
  - context: context.Context
  - input: VerifyInput

Returns:
  - *LoginResult: User and session token
  - error: Unauthorized (401) for any wrong, used, expired or exhausted code
*/
func (service *Service) VerifyAndLogin(context context.Context, input VerifyInput) (*LoginResult, error) {
	normalized := phone.NormalizePhone(input.Phone)

	if _, err := service.codeEngine.VerifyCode(context, normalized, strings.TrimSpace(input.Code)); err != nil {
		return nil, mapCodeError(err)
	}

	user, err := service.upsertPhoneUser(context, normalized, strings.TrimSpace(input.Name))
	if err != nil {
		return nil, err
	}

	token, err := service.tokenProvider.Issue(normalized, user.ID, user.Name)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_issue_token_failed: %w", err))
	}

	service.logger.InfoContext(context, "phone_login_succeeded", slog.Int64("user_id", user.ID))
	return &LoginResult{User: user, Token: token}, nil
}

func (service *Service) upsertPhoneUser(context context.Context, normalized, name string) (*User, error) {
	user, err := service.userRepository.FindByPhone(context, normalized)
	switch {
	case err == nil:
		if name != "" && name != user.Name {
			if err := service.userRepository.UpdateName(context, user.ID, name); err != nil {
				return nil, fmt.Errorf("auth_service_update_name_failed: %w", err)
			}
			user.Name = name
		}
		return user, nil

	case !apperr.IsNotFound(err):
		return nil, fmt.Errorf("auth_service_find_user_failed: %w", err)
	}

	if name == "" {
		name = DefaultUserName
	}
	email := PlaceholderEmail(normalized)
	user = &User{
		Name:         name,
		Phone:        &normalized,
		Email:        &email,
		PasswordHash: sec.PhoneAuthPasswordMarker,
	}

	if err := service.userRepository.Create(context, user); err != nil {
		// A concurrent login for the same phone created the row first.
		if dberr.IsUniqueViolation(err) {
			return service.userRepository.FindByPhone(context, normalized)
		}
		return nil, fmt.Errorf("auth_service_create_user_failed: %w", err)
	}

	service.logger.InfoContext(context, "phone_user_created", slog.Int64("user_id", user.ID))
	return user, nil
}

// CodeStatus reports whether a phone can still redeem a code.
type CodeStatus struct {
	HasActiveCode bool       `json:"hasActiveCode"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	AttemptsLeft  *int       `json:"attemptsLeft,omitempty"`
}

/*
CheckCodeStatus reports the newest active code of phone without revealing it.

Parameters:
  - context: context.Context
  - rawPhone: string

Returns:
  - *CodeStatus: Active flag plus expiry and attempts left when active
  - error: Validation (400) or Storage (500)
*/
func (service *Service) CheckCodeStatus(context context.Context, rawPhone string) (*CodeStatus, error) {
	normalized := phone.NormalizePhone(rawPhone)
	if !phone.IsValidPhoneFormat(normalized) {
		return nil, invalidPhoneError()
	}

	active, err := service.codeEngine.GetActiveCode(context, normalized)
	if errors.Is(err, phone.ErrCodeNotFound) {
		return &CodeStatus{HasActiveCode: false}, nil
	}
	if err != nil {
		return nil, mapCodeError(err)
	}

	attemptsLeft := active.AttemptsLeft()
	return &CodeStatus{
		HasActiveCode: true,
		ExpiresAt:     &active.ExpiresAt,
		AttemptsLeft:  &attemptsLeft,
	}, nil
}

// CodeRecord is one entry of a phone's code history.
type CodeRecord struct {
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Used      bool      `json:"used"`
	Attempts  int       `json:"attempts"`
}

// CodeEchoEnabled reports whether issued codes may be shown to the client.
func (service *Service) CodeEchoEnabled() bool {
	return service.echoCode
}

/*
CodeHistory lists every stored code of phone, newest first.

Description: A development aid that reveals codes, so it is only available
when code echo is enabled.

Returns:
  - []CodeRecord: Newest first
  - error: NotFound (404) when echo is off, Validation (400) or Storage (500)
*/
func (service *Service) CodeHistory(context context.Context, rawPhone string) ([]CodeRecord, error) {
	if !service.echoCode {
		return nil, apperr.NotFound("Code history")
	}

	normalized := phone.NormalizePhone(rawPhone)
	if !phone.IsValidPhoneFormat(normalized) {
		return nil, invalidPhoneError()
	}

	codes, err := service.codeEngine.History(context, normalized)
	if err != nil {
		return nil, mapCodeError(err)
	}

	records := make([]CodeRecord, 0, len(codes))
	for _, code := range codes {
		records = append(records, CodeRecord{
			Code:      code.Code,
			CreatedAt: code.CreatedAt,
			ExpiresAt: code.ExpiresAt,
			Used:      code.Used,
			Attempts:  code.Attempts,
		})
	}
	return records, nil
}

// # Email & Password Flow

// RegisterInput holds the data required to enroll a member by email.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

/*
Register validates, hashes, and persists a brand new email account.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - error: Conflict (if the email exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	_, err := service.userRepository.FindByEmail(context, email)
	if err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}
	if !apperr.IsNotFound(err) {
		return nil, fmt.Errorf("auth_service_find_user_failed: %w", err)
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_hash_failed: %w", err))
	}

	user := &User{
		Name:         strings.TrimSpace(input.Name),
		Email:        &email,
		PasswordHash: hashedPassword,
	}

	if err := service.userRepository.Create(context, user); err != nil {
		if dberr.IsUniqueViolation(err) {
			return nil, apperr.Conflict("Email is already registered")
		}
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	service.logger.InfoContext(context, "email_user_registered", slog.Int64("user_id", user.ID))
	return user, nil
}

// LoginInput defines credentials for an email authentication attempt.
type LoginInput struct {
	Email    string
	Password string
}

/*
Login validates email credentials and issues a session token.

Description: Phone accounts store a marker instead of a bcrypt hash, so they
can never log in by password.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginResult: User and session token
  - error: Unauthorized (generic message to prevent enumeration)
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized("Invalid login credentials")
		}
		return nil, fmt.Errorf("auth_service_find_user_failed: %w", err)
	}

	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		service.logger.WarnContext(context, "email_login_rejected", slog.Int64("user_id", user.ID))
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	token, err := service.tokenProvider.IssueForEmail(email, user.ID, user.Name)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_issue_token_failed: %w", err))
	}

	return &LoginResult{User: user, Token: token}, nil
}

// # Session Management

/*
ResolveIdentity maps a session token to the caller it belongs to.

Description: Invalid, expired or revoked tokens, and tokens whose user no
longer matches the subject, resolve to [sec.Anonymous]. Storage failures are
logged and also resolve to anonymous so protected routes answer 401.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - sec.Identity: [sec.Authenticated] or [sec.Anonymous]
*/
func (service *Service) ResolveIdentity(context context.Context, token string) sec.Identity {
	claims, err := service.tokenProvider.Parse(token)
	if err != nil {
		return sec.Anonymous{}
	}

	if service.revocationStore != nil {
		revoked, err := service.revocationStore.IsRevoked(context, token)
		if err != nil {
			service.logger.WarnContext(context, "token_revocation_check_failed", slog.Any("error", err))
		}
		if revoked {
			return sec.Anonymous{}
		}
	}

	user, err := service.userRepository.FindByID(context, claims.UserID)
	if err != nil {
		if !apperr.IsNotFound(err) {
			service.logger.ErrorContext(context, "identity_lookup_failed", slog.Any("error", err))
		}
		return sec.Anonymous{}
	}

	switch claims.Type {
	case sec.TokenTypePhone:
		if pointer.Val(user.Phone) != claims.Subject {
			return sec.Anonymous{}
		}
	case sec.TokenTypeEmail:
		if !strings.EqualFold(pointer.Val(user.Email), claims.Subject) {
			return sec.Anonymous{}
		}
	default:
		return sec.Anonymous{}
	}

	return sec.Authenticated{
		UserID: user.ID,
		Phone:  pointer.Val(user.Phone),
		Email:  pointer.Val(user.Email),
		Name:   user.Name,
	}
}

/*
Logout revokes token for the rest of its lifetime when revocation is enabled.

Parameters:
  - context: context.Context
  - token: string (may be empty)

Returns:
  - error: Revocation storage failures
*/
func (service *Service) Logout(context context.Context, token string) error {
	if token == "" || service.revocationStore == nil {
		return nil
	}

	expiresAt, err := service.tokenProvider.ExpiresAt(token)
	if err != nil {
		return nil
	}

	if err := service.revocationStore.Revoke(context, token, expiresAt); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}
	return nil
}

/*
Me returns the stored account of an authenticated caller.

Parameters:
  - context: context.Context
  - userID: int64

Returns:
  - *User: The account
  - error: NotFound or storage errors
*/
func (service *Service) Me(context context.Context, userID int64) (*User, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_me_failed: %w", err)
	}
	return user, nil
}

// # Error Mapping

func invalidPhoneError() *apperr.AppError {
	return apperr.ValidationError("Invalid phone number format", apperr.FieldError{
		Field:   FieldPhone,
		Message: "Must contain 10 to 15 digits",
	})
}

// mapCodeError converts engine sentinels into client errors.
func mapCodeError(err error) error {
	switch {
	case errors.Is(err, phone.ErrInvalidPhoneFormat):
		return invalidPhoneError()
	case errors.Is(err, phone.ErrRateLimitExceeded):
		return apperr.RateLimited(int(phone.RateWindow / time.Second)).WithCause(err)
	case errors.Is(err, phone.ErrIssueInProgress):
		return apperr.RateLimited(1).WithCause(err)
	case errors.Is(err, phone.ErrInvalidOrExpiredCode):
		return apperr.Unauthorized("Invalid or expired verification code")
	case errors.Is(err, phone.ErrStorage):
		return apperr.Storage(err)
	default:
		return apperr.Internal(err)
	}
}
