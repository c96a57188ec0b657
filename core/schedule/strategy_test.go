package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want Strategy
	}{
		{"epex", StrategyEpex},
		{"EPEX", StrategyEpex},
		{"Tmin", StrategyTmin},
		{" tmin ", StrategyTmin},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseStrategy("cheapest")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}
