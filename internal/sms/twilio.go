// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sms

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// messageCreator is the slice of the Twilio REST client we use.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender sends SMS through Twilio.
type TwilioSender struct {
	messages messageCreator
	from     string
	logger   *slog.Logger
}

// NewTwilioSender creates a sender authenticated with the account SID and auth token.
func NewTwilioSender(accountSID, authToken, from string, logger *slog.Logger) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{messages: client.Api, from: from, logger: logger}
}

/*
Send delivers message to phone.

Description: phone is a normalized digit string; Twilio expects E.164, so a
leading '+' is added. The Twilio client has no context support, so a cancelled
context is only checked before the call.

Returns:
  - error: ErrDeliveryFailed wrapping the provider error
*/
func (sender *TwilioSender) Send(context context.Context, phone, message string) error {
	if err := context.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(sender.from)
	params.SetTo("+" + phone)
	params.SetBody(message)

	resp, err := sender.messages.CreateMessage(params)
	if err != nil {
		sender.logger.ErrorContext(context, "sms_dispatch_failed",
			slog.String("provider", "twilio"),
			slog.Any("error", err),
		)
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	sender.logger.InfoContext(context, "sms_dispatched",
		slog.String("provider", "twilio"),
		slog.String("sid", sid),
	)
	return nil
}
