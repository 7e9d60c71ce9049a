package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleTo18(t *testing.T) {
	tests := []struct {
		name     string
		value    *big.Int
		decimals int
		want     string
	}{
		{"scales 6-decimal value up", big.NewInt(1_500_000), 6, "1500000000000000000"},
		{"scales 24-decimal value down", mustBig("1500000000000000000000000"), 24, "1500000000000000000"},
		{"18 decimals is identity", big.NewInt(42), 18, "42"},
		{"truncates toward zero when scaling down", big.NewInt(1_999_999), 24, "1"},
		{"zero stays zero", big.NewInt(0), 6, "0"},
		{"nil treated as zero", nil, 6, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScaleTo18(tt.value, tt.decimals).String())
		})
	}
}

func TestScaleTo18DoesNotMutateInput(t *testing.T) {
	value := big.NewInt(5)
	_ = ScaleTo18(value, 6)
	assert.Equal(t, "5", value.String())
}

func TestFormatBigInt(t *testing.T) {
	tests := []struct {
		name     string
		amount   *big.Int
		decimals uint8
		want     string
	}{
		{"trims trailing zeros", mustBig("1234500000000000000"), 18, "1.2345"},
		{"whole value drops the fraction", mustBig("2000000000000000000"), 18, "2"},
		{"sub-unit value keeps leading zero", big.NewInt(500_000), 6, "0.5"},
		{"zero decimals is plain string", big.NewInt(12345), 0, "12345"},
		{"nil is zero", nil, 18, "0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatBigInt(tt.amount, tt.decimals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBatchStrings(t *testing.T) {
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, BatchStrings([]string{"a", "b", "c", "d", "e"}, 2))
	assert.Equal(t, [][]string{{"a", "b"}}, BatchStrings([]string{"a", "b"}, 5))
	assert.Empty(t, BatchStrings(nil, 3))
	// non-positive batch size keeps everything in one batch
	assert.Equal(t, [][]string{{"a", "b", "c"}}, BatchStrings([]string{"a", "b", "c"}, 0))
}

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("invalid big int literal: " + s)
	}
	return v
}
