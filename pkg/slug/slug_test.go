// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dobalito/api/pkg/slug"
)

func TestFrom(t *testing.T) {
	tests := map[string]string{
		"Bike Rental":       "bike-rental",
		"  Home -- Repair ": "home-repair",
		"Café Crème":        "cafe-creme",
		"Серфинг":           "",
		"Tours & Guides 24": "tours-guides-24",
	}

	for input, want := range tests {
		assert.Equal(t, want, slug.From(input), input)
	}
}
