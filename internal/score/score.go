// Package score computes the heuristic detectability and confidence scores
// attached to verification results.
//
// The arithmetic reproduces the historical scoring exactly, including branch
// ordering, so reports stay comparable across versions. Do not "fix" shadowed
// branches here without versioning the report format.
package score

import (
	"time"
)

// Repetitive reports whether the digits of id form a synthetic-looking
// pattern: a run of three or more identical digits, a strictly
// ascending/descending step-1 sequence, a palindrome, or two identical
// halves.
func Repetitive(id string) bool {
	if hasRun(id, 3) {
		return true
	}
	if monotonic(id) {
		return true
	}
	if palindrome(id) {
		return true
	}
	return halvesEqual(id)
}

// Confidence scores how likely id is synthetic, 0-100. Rules are evaluated
// in a fixed priority order; the first match wins.
func Confidence(id string) int {
	if Repetitive(id) {
		return 99
	}
	if hasRun(id, 4) {
		return 95
	}
	if hasRun(id, 3) {
		return 90
	}
	if monotonic(id) {
		return 85
	}
	if len(id) >= 6 {
		if halvesEqual(id) {
			return 80
		}
		if pairedTriple(id) {
			return 75
		}
	}
	switch {
	case len(id) >= 12:
		return 70
	case len(id) >= 10:
		return 60
	case len(id) >= 8:
		return 50
	}
	return 40
}

// BioConfidence scores how likely a profile is genuine based on its bio text,
// the bio's set time, and business-account status. now anchors the age
// computation. The result is clamped to [10, 90] and rounded to the nearest
// multiple of ten.
func BioConfidence(bio string, setAt *time.Time, business bool, now time.Time) int {
	base := 50

	if len(bio) > 0 {
		switch {
		case len(bio) > 100:
			base -= 20
		case len(bio) > 50:
			base -= 15
		case len(bio) > 20:
			base -= 10
		default:
			base -= 5
		}
	} else {
		base += 15
	}

	if setAt != nil {
		age := now.Sub(*setAt)
		if age < 0 {
			age = -age
		}
		days := int(age.Hours()/24) + boundary(age)
		switch {
		case days < 30:
			base -= 20
		case days < 90:
			base -= 10
		case days > 365:
			base += 15
		case days > 730:
			// Shadowed by the >365 branch; kept to match historical report
			// output.
			base += 25
		}
	} else {
		base += 10
	}

	if business {
		base -= 25
	}

	if base < 10 {
		base = 10
	}
	if base > 90 {
		base = 90
	}
	return roundToTen(base)
}

// boundary reproduces ceiling semantics for the day count: any fractional
// day counts as a full day.
func boundary(age time.Duration) int {
	if age%(24*time.Hour) != 0 {
		return 1
	}
	return 0
}

func roundToTen(v int) int {
	return ((v + 5) / 10) * 10
}

func hasRun(id string, length int) bool {
	run := 1
	for i := 1; i < len(id); i++ {
		if id[i] == id[i-1] {
			run++
			if run >= length {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}

func monotonic(id string) bool {
	if len(id) < 2 {
		return true
	}
	up, down := true, true
	for i := 1; i < len(id); i++ {
		if id[i] != id[i-1]+1 {
			up = false
		}
		if id[i] != id[i-1]-1 {
			down = false
		}
	}
	return up || down
}

func palindrome(id string) bool {
	for i, j := 0, len(id)-1; i < j; i, j = i+1, j-1 {
		if id[i] != id[j] {
			return false
		}
	}
	return true
}

func halvesEqual(id string) bool {
	if len(id) == 0 || len(id)%2 != 0 {
		return false
	}
	half := len(id) / 2
	return id[:half] == id[half:]
}

// pairedTriple reports whether id contains three consecutive doubled digits,
// e.g. "aabbcc" anywhere in the string.
func pairedTriple(id string) bool {
	for i := 0; i+6 <= len(id); i++ {
		if id[i] == id[i+1] && id[i+2] == id[i+3] && id[i+4] == id[i+5] {
			return true
		}
	}
	return false
}
