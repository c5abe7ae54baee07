// Package identifier normalizes raw phone-number input into canonical
// digit-only identifiers with the country prefix applied.
package identifier

import (
	"errors"
	"strings"
)

// CountryPrefix is prepended to national-format numbers.
const CountryPrefix = "62"

const (
	minLength = 10
	maxLength = 15
)

// InteractiveCap bounds the number of identifiers accepted from interactive
// input paths. File-based paths are uncapped.
const InteractiveCap = 300

// networkDomain is the address suffix the messaging network expects.
const networkDomain = "@s.whatsapp.net"

// ErrInvalidLength rejects canonical identifiers outside the accepted range.
var ErrInvalidLength = errors.New("identifier: length outside accepted range")

// ErrEmpty rejects input with no digits at all.
var ErrEmpty = errors.New("identifier: no digits in input")

// Normalize converts raw input into a canonical identifier. Non-digit
// characters are stripped (a leading + included), a leading 0 is replaced by
// the country prefix, and a bare national number starting with 8 gets the
// prefix prepended. The result must be 10 to 15 digits long.
func Normalize(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", ErrEmpty
	}

	switch {
	case strings.HasPrefix(digits, "0"):
		digits = CountryPrefix + digits[1:]
	case strings.HasPrefix(digits, "8"):
		digits = CountryPrefix + digits
	}

	if len(digits) < minLength || len(digits) > maxLength {
		return "", ErrInvalidLength
	}
	return digits, nil
}

// CleanPrefix normalizes a range prefix the same way Normalize treats a full
// number: digits only, with a leading 0 or a bare 8 converted to the country
// prefix. Length is not validated; the generated suffix completes the
// identifier.
func CleanPrefix(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", ErrEmpty
	}
	switch {
	case strings.HasPrefix(digits, "0"):
		digits = CountryPrefix + digits[1:]
	case strings.HasPrefix(digits, "8"):
		digits = CountryPrefix + digits
	}
	return digits, nil
}

// Request pairs raw input with its normalization outcome.
type Request struct {
	Raw       string
	Canonical string
	Rejected  error
}

// NormalizeAll normalizes every raw input, honoring cap when it is positive.
// Rejected inputs are retained with their rejection reason so callers can
// report them without treating them as lookup failures.
func NormalizeAll(raws []string, cap int) []Request {
	if cap > 0 && len(raws) > cap {
		raws = raws[:cap]
	}
	requests := make([]Request, 0, len(raws))
	for _, raw := range raws {
		canonical, err := Normalize(raw)
		requests = append(requests, Request{Raw: raw, Canonical: canonical, Rejected: err})
	}
	return requests
}

// Accepted filters requests down to the canonical identifiers that survived
// normalization, preserving input order.
func Accepted(requests []Request) []string {
	ids := make([]string, 0, len(requests))
	for _, req := range requests {
		if req.Rejected == nil {
			ids = append(ids, req.Canonical)
		}
	}
	return ids
}

// JID renders the network address form of a canonical identifier.
func JID(id string) string {
	return id + networkDomain
}
