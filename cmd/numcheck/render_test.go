package main

import (
	"strings"
	"testing"

	"numcheck/internal/identifier"
	"numcheck/internal/ipc"
)

func TestRenderStatusIncludesConnectionFields(t *testing.T) {
	status := &ipc.StatusResponse{
		Running:       true,
		PID:           1234,
		State:         "open",
		ActiveSession: "main",
		SelfID:        "628111111111@s.whatsapp.net",
		Sessions:      []string{"main", "backup"},
		Capacity:      10,
		KnownUsers:    3,
	}

	out := renderStatus(status)
	for _, want := range []string{"open", "main", "2/10", "1234"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Last error") {
		t.Fatalf("error row rendered without an error:\n%s", out)
	}
}

func TestRenderSessionsMarksActive(t *testing.T) {
	out := renderSessions(&ipc.SessionsResponse{
		Sessions: []string{"alpha", "beta"},
		Active:   "beta",
		Capacity: 10,
	})
	if !strings.Contains(out, "alpha") || !strings.Contains(out, "beta") {
		t.Fatalf("sessions missing:\n%s", out)
	}
	if !strings.Contains(out, "active") {
		t.Fatalf("active marker missing:\n%s", out)
	}
}

func TestRenderSessionsEmpty(t *testing.T) {
	out := renderSessions(&ipc.SessionsResponse{Capacity: 10})
	if !strings.Contains(out, "no stored sessions") {
		t.Fatalf("empty message missing: %q", out)
	}
}

func TestRenderVerifySummaryOmitsZeroRows(t *testing.T) {
	out := renderVerifySummary(&ipc.VerifyResponse{
		JobID:        "job-1",
		Kind:         "existence",
		Total:        10,
		Registered:   6,
		Unregistered: 4,
	})
	if strings.Contains(out, "Failed") {
		t.Fatalf("failed row rendered with zero failures:\n%s", out)
	}
	if !strings.Contains(out, "job-1") {
		t.Fatalf("job id missing:\n%s", out)
	}
}

func TestRenderVerifySummaryShowsRangeLabel(t *testing.T) {
	out := renderVerifySummary(&ipc.VerifyResponse{
		JobID:        "job-2",
		Kind:         "range",
		Label:        "6281234567 0-4",
		Total:        5,
		Registered:   1,
		Unregistered: 4,
	})
	if !strings.Contains(out, "6281234567 0-4") {
		t.Fatalf("range label missing:\n%s", out)
	}
}

func TestCapInteractive(t *testing.T) {
	ids := make([]string, identifier.InteractiveCap+10)
	for i := range ids {
		ids[i] = "628123456789"
	}

	capped, wasCapped := capInteractive(ids, false)
	if !wasCapped || len(capped) != identifier.InteractiveCap {
		t.Fatalf("len = %d capped = %v", len(capped), wasCapped)
	}

	// File input is uncapped.
	full, wasCapped := capInteractive(ids, true)
	if wasCapped || len(full) != len(ids) {
		t.Fatalf("len = %d capped = %v", len(full), wasCapped)
	}

	few, wasCapped := capInteractive(ids[:5], false)
	if wasCapped || len(few) != 5 {
		t.Fatalf("len = %d capped = %v", len(few), wasCapped)
	}
}

func TestRenderTemplatesEmpty(t *testing.T) {
	out := renderTemplates(&ipc.TemplateResponse{})
	if !strings.Contains(out, "no stored templates") {
		t.Fatalf("empty message missing: %q", out)
	}
}

func TestRenderUserInfoUnknown(t *testing.T) {
	out := renderUserInfo("628111111111", &ipc.UserInfoResponse{})
	if !strings.Contains(out, "never been seen") {
		t.Fatalf("unknown message missing: %q", out)
	}
}

func TestYesNo(t *testing.T) {
	if yesNo(true) != "yes" || yesNo(false) != "no" {
		t.Fatal("yesNo mapping wrong")
	}
}
