package identifier_test

import (
	"errors"
	"testing"

	"numcheck/internal/identifier"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
		err  error
	}{
		{"leading zero replaced", "08123456789", "628123456789", nil},
		{"bare national prefixed", "8123456789", "628123456789", nil},
		{"plus stripped", "+628123456789", "628123456789", nil},
		{"separators stripped", "62 812-3456-789", "628123456789", nil},
		{"already canonical passes through", "628123456789", "628123456789", nil},
		{"other country untouched", "14155552671", "14155552671", nil},
		{"too short", "0812345", "", identifier.ErrInvalidLength},
		{"too long", "6281234567890123", "", identifier.ErrInvalidLength},
		{"no digits", "abc-def", "", identifier.ErrEmpty},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := identifier.Normalize(tc.raw)
			if !errors.Is(err, tc.err) {
				t.Fatalf("Normalize(%q) error = %v, want %v", tc.raw, err, tc.err)
			}
			if got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	first, err := identifier.Normalize("08123456789")
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	second, err := identifier.Normalize(first)
	if err != nil {
		t.Fatalf("Normalize on canonical failed: %v", err)
	}
	if first != second {
		t.Fatalf("expected idempotence, got %q then %q", first, second)
	}
}

func TestCleanPrefix(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
		err  error
	}{
		{"leading zero replaced", "0812345", "62812345", nil},
		{"bare national prefixed", "812345", "62812345", nil},
		{"separators stripped", "0812-345", "62812345", nil},
		{"short prefix accepted", "628", "628", nil},
		{"no digits", "abc", "", identifier.ErrEmpty},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := identifier.CleanPrefix(tc.raw)
			if !errors.Is(err, tc.err) {
				t.Fatalf("CleanPrefix(%q) error = %v, want %v", tc.raw, err, tc.err)
			}
			if got != tc.want {
				t.Fatalf("CleanPrefix(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestNormalizeAllAppliesCap(t *testing.T) {
	raws := make([]string, 0, identifier.InteractiveCap+25)
	for i := 0; i < identifier.InteractiveCap+25; i++ {
		raws = append(raws, "628123456789")
	}
	requests := identifier.NormalizeAll(raws, identifier.InteractiveCap)
	if len(requests) != identifier.InteractiveCap {
		t.Fatalf("expected %d requests, got %d", identifier.InteractiveCap, len(requests))
	}
}

func TestNormalizeAllKeepsRejections(t *testing.T) {
	requests := identifier.NormalizeAll([]string{"08123456789", "123"}, 0)
	if len(requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(requests))
	}
	if requests[0].Rejected != nil {
		t.Fatalf("expected first request accepted, got %v", requests[0].Rejected)
	}
	if requests[1].Rejected == nil {
		t.Fatal("expected second request rejected")
	}
	accepted := identifier.Accepted(requests)
	if len(accepted) != 1 || accepted[0] != "628123456789" {
		t.Fatalf("unexpected accepted set: %v", accepted)
	}
}

func TestJID(t *testing.T) {
	if got := identifier.JID("628123456789"); got != "628123456789@s.whatsapp.net" {
		t.Fatalf("unexpected JID: %q", got)
	}
}
