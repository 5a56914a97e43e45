package cuit

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateKnownGood(t *testing.T) {
	// 2,0,1,2,3,4,5,6,7,8 against weights 5,4,3,2,7,6,5,4,3,2:
	// 10+0+3+4+21+24+25+24+21+16 = 148; 148 mod 11 = 5; 11-5 = 6.
	assert.Empty(t, Validate("20-12345678-6"))
	assert.Empty(t, Validate("20123456786"), "dashes are optional")
}

func TestValidateFlippedCheckDigit(t *testing.T) {
	for d := 0; d <= 9; d++ {
		if d == 6 {
			continue
		}
		assert.NotEmpty(t, Validate(fmt.Sprintf("20-12345678-%d", d)))
	}
}

func TestRemainderElevenMeansZero(t *testing.T) {
	// 23-00000000: 2*5 + 3*4 = 22; 22 mod 11 = 0; 11-0 = 11 -> digit 0.
	assert.Equal(t, 0, CheckDigit("2300000000"))
	assert.Empty(t, Validate("23-00000000-0"))
}

func TestRemainderTenIsStructurallyInvalid(t *testing.T) {
	// 20-00000001: 10 + 2 = 12; 12 mod 11 = 1; 11-1 = 10 -> no valid digit.
	assert.Equal(t, -1, CheckDigit("2000000001"))
	for d := 0; d <= 9; d++ {
		assert.NotEmpty(t, Validate(fmt.Sprintf("20-00000001-%d", d)),
			"no supplied digit may make a remainder-10 CUIT valid")
	}
}

func TestValidateLength(t *testing.T) {
	assert.NotEmpty(t, Validate(""))
	assert.NotEmpty(t, Validate("20-1234567-6"))
	assert.NotEmpty(t, Validate("20-123456789-6"))
}

func TestFormatAsYouType(t *testing.T) {
	cases := map[string]string{
		"":              "",
		"2":             "2",
		"20":            "20",
		"201":           "20-1",
		"2012345678":    "20-12345678",
		"20123456786":   "20-12345678-6",
		"20-12345678-6": "20-12345678-6",
		"20123456786999": "20-12345678-6", // extra digits truncated
		"2o1a2":          "21-2",          // non-digits stripped
	}
	for in, want := range cases {
		assert.Equal(t, want, Format(in), "input %q", in)
	}
}
