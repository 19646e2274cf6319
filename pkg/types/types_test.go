package types

import (
	"math"
	"strconv"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want RGBA
	}{
		{"#FFFFFF", RGBA{255, 255, 255, 255}},
		{"#ff000080", RGBA{255, 0, 0, 128}},
		{"#00FF00", RGBA{0, 255, 0, 255}},
		{"10, 20, 30", RGBA{10, 20, 30, 255}},
		{"10,20,30,40", RGBA{10, 20, 30, 40}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseColor_Invalid(t *testing.T) {
	for _, in := range []string{"", "white", "#FFF", "#GGGGGG", "1,2", "1,2,300", "a,b,c"} {
		_, err := ParseColor(in)
		assert.Error(t, err, in)
	}
	assert.Equal(t, White, ParseColorOr("nope", White))
}

func TestParseColor_HexErrorKeepsCause(t *testing.T) {
	_, err := ParseColor("#GGGGGG")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid hex color")

	var numErr *strconv.NumError
	assert.True(t, errors.As(err, &numErr))
}

func TestHexRoundTrip(t *testing.T) {
	c := RGBA{1, 2, 3, 4}
	assert.Equal(t, "#01020304", c.Hex())
	back, err := ParseColor(c.Hex())
	require.NoError(t, err)
	assert.Equal(t, c, back)
}

func TestNormalizedPosition_Clamp(t *testing.T) {
	assert.Equal(t, NormalizedPosition{0, 1}, NormalizedPosition{-0.2, 1.7}.Clamp())
	assert.Equal(t, NormalizedPosition{0, 0.25}, NormalizedPosition{math.NaN(), 0.25}.Clamp())

	moved := NormalizedPosition{0.98, 0.5}.Nudge(0.05, -0.05)
	assert.Equal(t, 1.0, moved.X)
	assert.InDelta(t, 0.45, moved.Y, 1e-9)
}
