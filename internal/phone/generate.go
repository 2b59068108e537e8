// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package phone

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var ten = big.NewInt(10)

// GenerateCode returns CodeLength independent, uniformly distributed decimal digits.
// Leading zeros are allowed.
func GenerateCode() (string, error) {
	digits := make([]byte, CodeLength)
	for index := range digits {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("phone_generate_code_failed: %w", err)
		}
		digits[index] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
