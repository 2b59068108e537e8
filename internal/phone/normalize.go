// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package phone

import "strings"

const (
	minDigits = 10
	maxDigits = 15
)

// NormalizePhone strips every non-digit character.
//
//	NormalizePhone("+1 (555) 010-2030") // "15550102030"
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}

// IsValidPhoneFormat reports whether phone has between 10 and 15 digits once normalized.
func IsValidPhoneFormat(phone string) bool {
	digits := len(NormalizePhone(phone))
	return digits >= minDigits && digits <= maxDigits
}
