package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTTL(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"300", 300, false},
		{"5m", 300, false},
		{"1h30m", 5400, false},
		{"1", 1, false},
		{"0", 0, true},
		{"-5", 0, true},
		{"8d", 0, true},
		{"604801", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTTL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateTTLSeconds(t *testing.T) {
	assert.NoError(t, ValidateTTLSeconds(DefaultTTLSeconds))
	assert.ErrorIs(t, ValidateTTLSeconds(0), ErrInvalidTTL)
	assert.ErrorIs(t, ValidateTTLSeconds(MaxTTLSeconds+1), ErrInvalidTTL)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45s", FormatDuration(45*time.Second))
	assert.Equal(t, "5m", FormatDuration(5*time.Minute))
	assert.Equal(t, "2h", FormatDuration(2*time.Hour))
	assert.Equal(t, "2h30m", FormatDuration(150*time.Minute))
	assert.Equal(t, "3d", FormatDuration(72*time.Hour))
	assert.Equal(t, "3d4h", FormatDuration(76*time.Hour))
}

func TestEntryExpiry(t *testing.T) {
	stored := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	e := &Entry{Answer: "a", StoredAt: stored}

	assert.False(t, e.IsExpired(stored.Add(DefaultTTL), DefaultTTL), "exactly TTL old is fresh")
	assert.True(t, e.IsExpired(stored.Add(DefaultTTL+time.Millisecond), DefaultTTL))
	assert.Equal(t, time.Minute, e.TimeUntilExpiration(stored.Add(4*time.Minute), DefaultTTL))
	assert.Equal(t, time.Duration(0), e.TimeUntilExpiration(stored.Add(time.Hour), DefaultTTL))
}
