// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

/*
TestConvertToPgx5DSN rewrites postgres schemes for the golang-migrate pgx5 driver.
*/
func TestConvertToPgx5DSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@db:5432/app", "pgx5://u:p@db:5432/app"},
		{"postgresql://u:p@db:5432/app", "pgx5://u:p@db:5432/app"},
		{"pgx5://u:p@db:5432/app", "pgx5://u:p@db:5432/app"},
		{"host=db user=u", "host=db user=u"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, convertToPgx5DSN(tt.in))
		})
	}
}
