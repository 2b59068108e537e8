// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package convert_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dobalito/api/pkg/convert"
)

func TestToIntD(t *testing.T) {
	assert.Equal(t, 7, convert.ToIntD("7", 1))
	assert.Equal(t, 1, convert.ToIntD("", 1))
	assert.Equal(t, 1, convert.ToIntD("seven", 1))
	assert.Equal(t, -3, convert.ToIntD("-3", 1))
}

func TestToBool(t *testing.T) {
	assert.True(t, convert.ToBool("true"))
	assert.True(t, convert.ToBool("1"))
	assert.False(t, convert.ToBool(""))
	assert.False(t, convert.ToBool("yes"))
}
