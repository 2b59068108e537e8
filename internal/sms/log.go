// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sms

import (
	"context"
	"log/slog"
)

// LogSender writes messages to the log instead of sending them.
// It prints the code in clear text and must never run in production.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a dry-run sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (sender *LogSender) Send(context context.Context, phone, message string) error {
	sender.logger.InfoContext(context, "sms_dry_run",
		slog.String("to", phone),
		slog.String("message", message),
	)
	return nil
}
