package utils

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerificationCode_Format(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateVerificationCode()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err, "code must be numeric, got %q", code)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 1000000)
	}
}

func TestCodeExpired(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		sentAt  time.Time
		expired bool
	}{
		{"just issued", now, false},
		{"59 minutes old", now.Add(-59 * time.Minute), false},
		{"exactly one hour old", now.Add(-time.Hour), false},
		{"61 minutes old", now.Add(-61 * time.Minute), true},
		{"a day old", now.Add(-24 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, CodeExpired(tt.sentAt, now, time.Hour))
		})
	}
}
