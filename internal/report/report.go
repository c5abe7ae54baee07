package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"numcheck/internal/verify"
)

// unknownYear collects bio results whose set date could not be determined.
const unknownYear = 0

// Writer renders job summaries into report files under a fixed directory and
// into display text for interactive surfaces.
type Writer struct {
	dir     string
	printer *message.Printer
	now     func() time.Time
}

// NewWriter builds a Writer rooted at dir. A nil clock selects real time.
func NewWriter(dir string, now func() time.Time) *Writer {
	if now == nil {
		now = time.Now
	}
	return &Writer{
		dir:     dir,
		printer: message.NewPrinter(language.English),
		now:     now,
	}
}

// WriteExistence writes an existence report file and returns its path.
func (w *Writer) WriteExistence(s *verify.Summary) (string, error) {
	return w.write("existence", w.ExistenceText(s))
}

// WriteBio writes a bio report file and returns its path.
func (w *Writer) WriteBio(s *verify.Summary) (string, error) {
	return w.write("bio", w.BioText(s))
}

// WritePattern writes a pattern check report file and returns its path.
func (w *Writer) WritePattern(s *verify.Summary) (string, error) {
	return w.write("pattern", w.PatternText(s))
}

// WriteRange writes a range check report file and returns its path.
func (w *Writer) WriteRange(s *verify.Summary) (string, error) {
	return w.write("range", w.RangeText(s))
}

func (w *Writer) write(kind, text string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	name := fmt.Sprintf("%s-%s.txt", kind, w.now().Format("20060102-150405"))
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// ExistenceText renders an existence summary: counts first, then the
// registered and unregistered identifiers in their checked order.
func (w *Writer) ExistenceText(s *verify.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "EXISTENCE CHECK %s\n", s.FinishedAt.Format("2006-01-02 15:04"))
	w.writeCounts(&b, s)
	writeRegistrationSections(&b, s)
	return b.String()
}

// BioText renders a bio summary grouped by the year the profile text was
// set, oldest first, with undatable profiles in a final bucket.
func (w *Writer) BioText(s *verify.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "BIO CHECK %s\n", s.FinishedAt.Format("2006-01-02 15:04"))
	w.writeCounts(&b, s)

	byYear := map[int][]verify.Result{}
	for _, res := range s.Results {
		if !res.Registered || res.Err != "" {
			continue
		}
		year := unknownYear
		if res.BioSetAt != nil {
			year = res.BioSetAt.Year()
		}
		byYear[year] = append(byYear[year], res)
	}

	years := make([]int, 0, len(byYear))
	for year := range byYear {
		if year != unknownYear {
			years = append(years, year)
		}
	}
	sort.Ints(years)
	if _, ok := byYear[unknownYear]; ok {
		years = append(years, unknownYear)
	}

	for _, year := range years {
		label := "UNKNOWN YEAR"
		if year != unknownYear {
			label = fmt.Sprintf("SET IN %d", year)
		}
		writeSection(&b, label, byYear[year], func(res verify.Result) string {
			line := fmt.Sprintf("%s | score %d", res.ID, res.BioConfidence)
			if res.Business {
				line += " | business"
			}
			if res.Bio != "" {
				line += " | " + sanitizeBio(res.Bio)
			}
			return line
		})
	}
	return b.String()
}

// PatternText renders a pattern check: repetitive numbers split by
// registration first, plain numbers after, failures last. Registered
// repetitive numbers carry their confidence score, strongest first.
func (w *Writer) PatternText(s *verify.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "PATTERN CHECK %s\n", s.FinishedAt.Format("2006-01-02 15:04"))
	w.writeCounts(&b, s)

	var repeReg, repeUnreg, plainReg, plainUnreg, failed []verify.Result
	for _, res := range s.Results {
		switch {
		case res.Err != "":
			failed = append(failed, res)
		case res.Repetitive && res.Registered:
			repeReg = append(repeReg, res)
		case res.Repetitive:
			repeUnreg = append(repeUnreg, res)
		case res.Registered:
			plainReg = append(plainReg, res)
		default:
			plainUnreg = append(plainUnreg, res)
		}
	}
	sort.SliceStable(repeReg, func(i, j int) bool {
		return repeReg[i].Confidence > repeReg[j].Confidence
	})

	writeSection(&b, "REPETITIVE REGISTERED", repeReg, func(res verify.Result) string {
		return fmt.Sprintf("%s | %d%%", res.ID, res.Confidence)
	})
	writeSection(&b, "REPETITIVE NOT REGISTERED", repeUnreg, func(res verify.Result) string {
		return res.ID
	})
	writeSection(&b, "PLAIN REGISTERED", plainReg, func(res verify.Result) string {
		return res.ID
	})
	writeSection(&b, "PLAIN NOT REGISTERED", plainUnreg, func(res verify.Result) string {
		return res.ID
	})
	writeSection(&b, "FAILED", failed, func(res verify.Result) string {
		return fmt.Sprintf("%s (%s)", res.ID, res.Err)
	})
	return b.String()
}

// RangeText renders a range check like an existence report, with the
// generated range named in the header.
func (w *Writer) RangeText(s *verify.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "RANGE CHECK %s\n", s.FinishedAt.Format("2006-01-02 15:04"))
	if s.Label != "" {
		fmt.Fprintf(&b, "Range: %s\n", s.Label)
	}
	w.writeCounts(&b, s)
	writeRegistrationSections(&b, s)
	return b.String()
}

// writeRegistrationSections splits results into registered, not registered
// and failed sections in their checked order.
func writeRegistrationSections(b *strings.Builder, s *verify.Summary) {
	var registered, unregistered, failed []verify.Result
	for _, res := range s.Results {
		switch {
		case res.Err != "":
			failed = append(failed, res)
		case res.Registered:
			registered = append(registered, res)
		default:
			unregistered = append(unregistered, res)
		}
	}

	writeSection(b, "REGISTERED", registered, func(res verify.Result) string {
		return res.ID
	})
	writeSection(b, "NOT REGISTERED", unregistered, func(res verify.Result) string {
		return res.ID
	})
	writeSection(b, "FAILED", failed, func(res verify.Result) string {
		return fmt.Sprintf("%s (%s)", res.ID, res.Err)
	})
}

func (w *Writer) writeCounts(b *strings.Builder, s *verify.Summary) {
	fmt.Fprintf(b, "Total: %s\n", w.printer.Sprintf("%d", s.Total))
	fmt.Fprintf(b, "Registered: %s\n", w.printer.Sprintf("%d", s.Registered))
	fmt.Fprintf(b, "Not registered: %s\n", w.printer.Sprintf("%d", s.Unregistered))
	if s.Failed > 0 {
		fmt.Fprintf(b, "Failed: %s\n", w.printer.Sprintf("%d", s.Failed))
	}
	if len(s.Rejected) > 0 {
		fmt.Fprintf(b, "Rejected inputs: %s\n", w.printer.Sprintf("%d", len(s.Rejected)))
	}
}

func writeSection(b *strings.Builder, label string, results []verify.Result, line func(verify.Result) string) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintf(b, "\n[%s] (%d)\n", label, len(results))
	for _, res := range results {
		b.WriteString(line(res))
		b.WriteByte('\n')
	}
}

// sanitizeBio flattens profile text onto one report line.
func sanitizeBio(bio string) string {
	bio = strings.ReplaceAll(bio, "\r", " ")
	bio = strings.ReplaceAll(bio, "\n", " ")
	return strings.TrimSpace(bio)
}
