package inputfile_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"numcheck/internal/inputfile"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestExtractText(t *testing.T) {
	path := writeFile(t, "list.txt", "628111111111\n0812 3456 789, 628122222222\nno digits here\n\n+62 813-0000-1111\n")

	got, err := inputfile.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := []string{"628111111111", "0812", "3456", "789", "628122222222", "+62", "813-0000-1111"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestExtractCSV(t *testing.T) {
	path := writeFile(t, "list.csv", "name,number\nalice,628111111111\nbob,\"628122222222\"\ncarol,none\n")

	got, err := inputfile.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := []string{"628111111111", "628122222222"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExtractXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.xlsx")
	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	if err := book.SetCellValue(sheet, "A1", "628111111111"); err != nil {
		t.Fatalf("SetCellValue: %v", err)
	}
	if err := book.SetCellValue(sheet, "B2", "628122222222"); err != nil {
		t.Fatalf("SetCellValue: %v", err)
	}
	if err := book.SetCellValue(sheet, "A3", "header"); err != nil {
		t.Fatalf("SetCellValue: %v", err)
	}
	if err := book.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}

	got, err := inputfile.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %v, want two candidates", got)
	}
}

func TestExtractRejectsUnknownFormat(t *testing.T) {
	path := writeFile(t, "list.pdf", "whatever")
	if _, err := inputfile.Extract(path); !errors.Is(err, inputfile.ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}
