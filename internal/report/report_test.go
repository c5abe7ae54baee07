package report_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"numcheck/internal/report"
	"numcheck/internal/verify"
)

func fixedClock() time.Time {
	return time.Date(2024, 6, 1, 12, 30, 45, 0, time.UTC)
}

func TestExistenceTextSections(t *testing.T) {
	w := report.NewWriter(t.TempDir(), fixedClock)
	summary := &verify.Summary{
		Kind:         verify.KindExistence,
		Total:        3,
		Registered:   1,
		Unregistered: 1,
		Failed:       1,
		Results: []verify.Result{
			{ID: "628111111111", Registered: true},
			{ID: "628122222222"},
			{ID: "628133333333", Err: "timed out"},
		},
		FinishedAt: fixedClock(),
	}

	text := w.ExistenceText(summary)
	for _, want := range []string{
		"[REGISTERED] (1)",
		"[NOT REGISTERED] (1)",
		"[FAILED] (1)",
		"628133333333 (timed out)",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("text missing %q:\n%s", want, text)
		}
	}
}

func TestBioTextGroupsByYearWithUnknownLast(t *testing.T) {
	w := report.NewWriter(t.TempDir(), fixedClock)
	y2019 := time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC)
	y2023 := time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC)
	summary := &verify.Summary{
		Kind:       verify.KindBio,
		Total:      3,
		Registered: 3,
		Results: []verify.Result{
			{ID: "628100000001", Registered: true, Bio: "new\nphone", BioSetAt: &y2023, BioConfidence: 30},
			{ID: "628100000002", Registered: true, BioConfidence: 80},
			{ID: "628100000003", Registered: true, Bio: "old bio", BioSetAt: &y2019, BioConfidence: 90},
		},
		FinishedAt: fixedClock(),
	}

	text := w.BioText(summary)
	i2019 := strings.Index(text, "[SET IN 2019]")
	i2023 := strings.Index(text, "[SET IN 2023]")
	iUnknown := strings.Index(text, "[UNKNOWN YEAR]")
	if i2019 < 0 || i2023 < 0 || iUnknown < 0 {
		t.Fatalf("missing year sections:\n%s", text)
	}
	if !(i2019 < i2023 && i2023 < iUnknown) {
		t.Fatalf("sections out of order (2019=%d 2023=%d unknown=%d)", i2019, i2023, iUnknown)
	}
	if strings.Contains(text, "new\nphone") {
		t.Fatal("bio text not flattened onto one line")
	}
	if !strings.Contains(text, "new phone") {
		t.Fatalf("flattened bio missing:\n%s", text)
	}
}

func TestPatternTextSplitsByRegistration(t *testing.T) {
	w := report.NewWriter(t.TempDir(), fixedClock)
	summary := &verify.Summary{
		Kind:         verify.KindPattern,
		Total:        5,
		Registered:   3,
		Unregistered: 1,
		Failed:       1,
		Results: []verify.Result{
			{ID: "628111222333", Registered: true, Confidence: 70, Repetitive: true},
			{ID: "628100100100", Registered: true, Confidence: 99, Repetitive: true},
			{ID: "628144555666", Confidence: 60, Repetitive: true},
			{ID: "628123456789", Registered: true, Confidence: 40},
			{ID: "628133333333", Err: "timed out"},
		},
		FinishedAt: fixedClock(),
	}

	text := w.PatternText(summary)
	for _, want := range []string{
		"[REPETITIVE REGISTERED] (2)",
		"[REPETITIVE NOT REGISTERED] (1)",
		"[PLAIN REGISTERED] (1)",
		"[FAILED] (1)",
		"628133333333 (timed out)",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("text missing %q:\n%s", want, text)
		}
	}
	// Registered repetitive numbers carry their score, strongest first.
	iHigh := strings.Index(text, "628100100100 | 99%")
	iLow := strings.Index(text, "628111222333 | 70%")
	if iHigh < 0 || iLow < 0 || iHigh > iLow {
		t.Fatalf("scores not sorted descending:\n%s", text)
	}
	if strings.Contains(text, "628144555666 | ") {
		t.Fatalf("unregistered repetitive number carries a score:\n%s", text)
	}
}

func TestRangeTextNamesTheRange(t *testing.T) {
	w := report.NewWriter(t.TempDir(), fixedClock)
	summary := &verify.Summary{
		Kind:         verify.KindRange,
		Label:        "6281234567 0-4",
		Total:        2,
		Registered:   1,
		Unregistered: 1,
		Results: []verify.Result{
			{ID: "62812345670", Registered: true},
			{ID: "62812345671"},
		},
		FinishedAt: fixedClock(),
	}

	text := w.RangeText(summary)
	for _, want := range []string{
		"RANGE CHECK",
		"Range: 6281234567 0-4",
		"[REGISTERED] (1)",
		"[NOT REGISTERED] (1)",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("text missing %q:\n%s", want, text)
		}
	}
}

func TestWriteCreatesTimestampedFile(t *testing.T) {
	dir := t.TempDir()
	w := report.NewWriter(filepath.Join(dir, "reports"), fixedClock)
	summary := &verify.Summary{Kind: verify.KindExistence, FinishedAt: fixedClock()}

	path, err := w.WriteExistence(summary)
	if err != nil {
		t.Fatalf("WriteExistence: %v", err)
	}
	if filepath.Base(path) != "existence-20240601-123045.txt" {
		t.Fatalf("file name = %q", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "EXISTENCE CHECK") {
		t.Fatalf("report content = %q", data)
	}
}

func TestLargeCountsUseSeparators(t *testing.T) {
	w := report.NewWriter(t.TempDir(), fixedClock)
	summary := &verify.Summary{
		Kind:       verify.KindExistence,
		Total:      12345,
		Registered: 12000,
		FinishedAt: fixedClock(),
	}
	text := w.ExistenceText(summary)
	if !strings.Contains(text, "12,345") {
		t.Fatalf("total not formatted with separators:\n%s", text)
	}
}
