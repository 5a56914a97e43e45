// Package cuit validates and formats Argentine tax identifiers (CUIT/CUIL).
// A CUIT is eleven digits: a two-digit prefix, an eight-digit body and a
// check digit computed with the standard modulo-11 weighting.
package cuit

import (
	"fmt"
	"strings"
)

// weights applied to the first ten digits when computing the check digit.
var weights = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// Digits strips every non-digit rune from raw.
func Digits(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Format renders whatever digits have been typed so far in NN-NNNNNNNN-N
// shape, inserting the dashes as soon as each block is complete. Input
// beyond eleven digits is truncated.
func Format(raw string) string {
	d := Digits(raw)
	if len(d) > 11 {
		d = d[:11]
	}
	switch {
	case len(d) <= 2:
		return d
	case len(d) <= 10:
		return d[:2] + "-" + d[2:]
	default:
		return d[:2] + "-" + d[2:10] + "-" + d[10:]
	}
}

// CheckDigit computes the modulo-11 check digit for the first ten digits.
// It returns the expected digit, or -1 when the computation yields 10, in
// which case no valid check digit exists and the number is structurally
// invalid no matter what the eleventh digit says.
func CheckDigit(first10 string) int {
	if len(first10) != 10 {
		return -1
	}
	sum := 0
	for i, r := range first10 {
		sum += int(r-'0') * weights[i]
	}
	switch c := 11 - sum%11; c {
	case 11:
		return 0
	case 10:
		return -1
	default:
		return c
	}
}

// Validate checks a CUIT in any formatting (dashes and spaces are ignored).
// It returns the empty string when the number is valid, otherwise a
// human-readable message describing the problem.
func Validate(raw string) string {
	d := Digits(raw)
	if len(d) != 11 {
		return "el CUIT debe tener 11 dígitos"
	}
	expected := CheckDigit(d[:10])
	if expected < 0 {
		return "el CUIT no es válido"
	}
	if got := int(d[10] - '0'); got != expected {
		return fmt.Sprintf("dígito verificador incorrecto (se esperaba %d)", expected)
	}
	return ""
}
