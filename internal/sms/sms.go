// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package sms delivers verification codes to phone numbers.

Two senders exist:

  - [TwilioSender]: Production delivery through the Twilio Messaging API.
  - [LogSender]: Dry-run sender for development that writes the message to the log.

The sender is chosen once at startup from SMS_PROVIDER.
*/
package sms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dobalito/api/internal/platform/config"
)

// ErrDeliveryFailed wraps every provider failure.
var ErrDeliveryFailed = errors.New("sms: delivery failed")

// Sender sends a single text message.
type Sender interface {
	Send(context context.Context, phone, message string) error
}

// VerificationMessage is the text sent with a fresh code.
func VerificationMessage(code string, validMinutes int) string {
	return fmt.Sprintf("Your Dobalito verification code: %s. It expires in %d minutes.", code, validMinutes)
}

// NewSender builds the [Sender] selected by cfg.SMSProvider.
func NewSender(cfg *config.Config, logger *slog.Logger) (Sender, error) {
	switch cfg.SMSProvider {
	case config.SMSProviderTwilio:
		return NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger), nil
	case config.SMSProviderLog:
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("sms: unknown provider %q", cfg.SMSProvider)
	}
}
