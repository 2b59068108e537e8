// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package uuid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dobalito/api/pkg/uuid"
)

func TestNew(t *testing.T) {
	first := uuid.New()
	second := uuid.New()

	assert.True(t, uuid.IsValid(first))
	assert.NotEqual(t, first, second)
	assert.Equal(t, byte('7'), first[14])
}

func TestIsValid(t *testing.T) {
	assert.True(t, uuid.IsValid("0190f2c4-8a6e-7c3b-9d1e-2f4a5b6c7d8e"))
	assert.False(t, uuid.IsValid("0190f2c48a6e7c3b9d1e2f4a5b6c7d8e"))
	assert.False(t, uuid.IsValid("../../etc/passwd"))
	assert.False(t, uuid.IsValid(""))
}
