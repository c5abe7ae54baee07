package daemon_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"numcheck/internal/daemon"
	"numcheck/internal/messaging/messagingtest"
	"numcheck/internal/store"
	"numcheck/internal/testsupport"
	"numcheck/internal/verify"
)

type fakeMail struct {
	mu   sync.Mutex
	sent int
}

func (f *fakeMail) Send(context.Context, string, []string, []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent++
	return nil
}

func newDaemon(t *testing.T, dialer *messagingtest.Dialer, mail *fakeMail) *daemon.Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Mail.Username = "agent@example.com"
	opts := daemon.Options{Config: cfg, Dialer: dialer}
	if mail != nil {
		opts.MailTransport = mail
	}
	d, err := daemon.New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
		_ = d.Close()
	})
	return d
}

func startDaemon(t *testing.T, d *daemon.Daemon) {
	t.Helper()
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
}

func waitOpen(t *testing.T, d *daemon.Daemon) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if d.Status().Supervisor.State == "open" {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("connection never opened")
}

func TestStartRejectsSecondInstance(t *testing.T) {
	dialer := messagingtest.NewDialer(nil)
	d := newDaemon(t, dialer, nil)
	startDaemon(t, d)

	if err := d.Start(context.Background()); err == nil {
		t.Fatal("second Start succeeded")
	}
	if !d.Running() {
		t.Fatal("daemon not running after Start")
	}
}

func TestStatusReportsSupervisorState(t *testing.T) {
	dialer := messagingtest.NewDialer(nil)
	d := newDaemon(t, dialer, nil)
	startDaemon(t, d)

	status := d.Status()
	if !status.Running {
		t.Fatal("status not running")
	}
	if status.PID != os.Getpid() {
		t.Fatalf("pid = %d", status.PID)
	}
	if status.Supervisor.State != "idle" {
		t.Fatalf("supervisor state = %q, want idle", status.Supervisor.State)
	}
}

func TestVerifyRunsJobAndRecordsHistory(t *testing.T) {
	dialer := messagingtest.NewDialer(nil)
	dialer.Directory.Register("628111111111", messagingtest.Account{})
	dialer.Script("main", messagingtest.SessionScript{SelfID: "self", PairingCode: "ABCDEFGH"})
	d := newDaemon(t, dialer, nil)
	startDaemon(t, d)

	code, err := d.Pair(context.Background(), "main")
	if err != nil {
		t.Fatalf("Pair: %v", err)
	}
	if code != "ABCD-EFGH" {
		t.Fatalf("pairing code = %q", code)
	}
	waitOpen(t, d)

	outcome, err := d.Verify(context.Background(), "existence",
		[]string{"628111111111", "628122222222"}, "", nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if outcome.Summary.Registered != 1 || outcome.Summary.Unregistered != 1 {
		t.Fatalf("summary = %+v", outcome.Summary)
	}
	if outcome.ReportPath == "" {
		t.Fatal("report path empty")
	}
	if _, err := os.Stat(outcome.ReportPath); err != nil {
		t.Fatalf("report file: %v", err)
	}

	jobs, err := d.RecentJobs(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentJobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != outcome.Summary.JobID {
		t.Fatalf("jobs = %+v", jobs)
	}
}

func TestVerifyPatternChecksRegistration(t *testing.T) {
	dialer := messagingtest.NewDialer(nil)
	dialer.Directory.Register("628111222333", messagingtest.Account{})
	dialer.Script("main", messagingtest.SessionScript{SelfID: "self", PairingCode: "ABCDEFGH"})
	d := newDaemon(t, dialer, nil)
	startDaemon(t, d)

	if _, err := d.Pair(context.Background(), "main"); err != nil {
		t.Fatalf("Pair: %v", err)
	}
	waitOpen(t, d)

	outcome, err := d.Verify(context.Background(), "pattern", []string{"628111222333", "628123456789"}, "", nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if outcome.Summary.Registered != 1 || outcome.Summary.Unregistered != 1 {
		t.Fatalf("summary = %+v", outcome.Summary)
	}
	if _, err := os.Stat(outcome.ReportPath); err != nil {
		t.Fatalf("report file: %v", err)
	}
}

func TestVerifyRangeGeneratesAndRecords(t *testing.T) {
	dialer := messagingtest.NewDialer(nil)
	dialer.Directory.Register("62812345670", messagingtest.Account{})
	dialer.Script("main", messagingtest.SessionScript{SelfID: "self", PairingCode: "ABCDEFGH"})
	d := newDaemon(t, dialer, nil)
	startDaemon(t, d)

	if _, err := d.Pair(context.Background(), "main"); err != nil {
		t.Fatalf("Pair: %v", err)
	}
	waitOpen(t, d)

	outcome, err := d.VerifyRange(context.Background(), "081234567", 0, 4, "", nil)
	if err != nil {
		t.Fatalf("VerifyRange: %v", err)
	}
	if outcome.Summary.Total != 5 || outcome.Summary.Registered != 1 {
		t.Fatalf("summary = %+v", outcome.Summary)
	}
	if outcome.Summary.Label == "" {
		t.Fatal("range label empty")
	}
	if _, err := os.Stat(outcome.ReportPath); err != nil {
		t.Fatalf("report file: %v", err)
	}

	jobs, err := d.RecentJobs(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentJobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Kind != "range" {
		t.Fatalf("jobs = %+v", jobs)
	}
}

func TestVerifyEnforcesGate(t *testing.T) {
	dialer := messagingtest.NewDialer(nil)
	d := newDaemon(t, dialer, nil)
	startDaemon(t, d)

	_, err := d.Verify(context.Background(), "pattern", []string{"628111222333"}, "628999999999", nil)
	if !errors.Is(err, store.ErrDenied) {
		t.Fatalf("err = %v, want ErrDenied", err)
	}

	if err := d.AllowAdd("628999999999"); err != nil {
		t.Fatalf("AllowAdd: %v", err)
	}
	// Behind the gate the job still needs an open connection.
	_, err = d.Verify(context.Background(), "pattern", []string{"628111222333"}, "628999999999", nil)
	if !errors.Is(err, verify.ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
}

func TestVerifyRejectsUnknownKind(t *testing.T) {
	dialer := messagingtest.NewDialer(nil)
	d := newDaemon(t, dialer, nil)
	startDaemon(t, d)

	if _, err := d.Verify(context.Background(), "mystery", nil, "", nil); !errors.Is(err, daemon.ErrUnknownJobKind) {
		t.Fatalf("err = %v, want ErrUnknownJobKind", err)
	}
}

func TestAppealSendsAndRecords(t *testing.T) {
	dialer := messagingtest.NewDialer(nil)
	mail := &fakeMail{}
	d := newDaemon(t, dialer, mail)
	startDaemon(t, d)

	subject, err := d.Appeal(context.Background(), "628111111111", "")
	if err != nil {
		t.Fatalf("Appeal: %v", err)
	}
	if !strings.Contains(subject, "628111111111") {
		t.Fatalf("subject = %q", subject)
	}
	if mail.sent != 1 {
		t.Fatalf("sent = %d", mail.sent)
	}

	appeals, err := d.RecentAppeals(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentAppeals: %v", err)
	}
	if len(appeals) != 1 || appeals[0].Identifier != "628111111111" {
		t.Fatalf("appeals = %+v", appeals)
	}
}

func TestAppealChargesAllowance(t *testing.T) {
	dialer := messagingtest.NewDialer(nil)
	mail := &fakeMail{}
	d := newDaemon(t, dialer, mail)
	startDaemon(t, d)

	user := "628999999999"
	if err := d.SetFixLimit(user, 1); err != nil {
		t.Fatalf("SetFixLimit: %v", err)
	}
	if _, err := d.Appeal(context.Background(), "628111111111", user); err != nil {
		t.Fatalf("Appeal: %v", err)
	}
	if _, err := d.Appeal(context.Background(), "628111111111", user); !errors.Is(err, store.ErrFixLimitExhausted) {
		t.Fatalf("err = %v, want ErrFixLimitExhausted", err)
	}
	if mail.sent != 1 {
		t.Fatalf("sent = %d, want 1", mail.sent)
	}

	// Admins are not charged.
	admin := "628100000001"
	if err := d.AdminAdd(admin); err != nil {
		t.Fatalf("AdminAdd: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := d.Appeal(context.Background(), "628111111111", admin); err != nil {
			t.Fatalf("admin appeal %d: %v", i, err)
		}
	}
	rec, ok := d.UserInfo(admin)
	if !ok {
		t.Fatal("admin record missing")
	}
	if rec.FixLimit != store.DefaultFixLimit {
		t.Fatalf("admin fix limit = %d, want %d", rec.FixLimit, store.DefaultFixLimit)
	}
	if d.SetFixLimit(user, -1) == nil {
		t.Fatal("negative limit accepted")
	}
}

func TestTemplateAdministration(t *testing.T) {
	dialer := messagingtest.NewDialer(nil)
	mail := &fakeMail{}
	d := newDaemon(t, dialer, mail)
	startDaemon(t, d)

	if _, err := d.TemplateAdd("", "No placeholder", "missing it"); err == nil {
		t.Fatal("body without placeholder accepted")
	}
	tpl, err := d.TemplateAdd("escalations@example.com", "Stored letter", "Re-check {nomor} please.")
	if err != nil {
		t.Fatalf("TemplateAdd: %v", err)
	}
	if err := d.TemplateActivate(tpl.ID); err != nil {
		t.Fatalf("TemplateActivate: %v", err)
	}

	subject, err := d.Appeal(context.Background(), "628111111111", "")
	if err != nil {
		t.Fatalf("Appeal: %v", err)
	}
	if subject != "Stored letter" {
		t.Fatalf("subject = %q, want the stored letter", subject)
	}

	list, active := d.TemplateList()
	if len(list) != 1 || active != tpl.ID {
		t.Fatalf("list = %+v active = %d", list, active)
	}
	if err := d.TemplateRemove(tpl.ID); err != nil {
		t.Fatalf("TemplateRemove: %v", err)
	}
	if err := d.TemplateActivate(tpl.ID); !errors.Is(err, store.ErrTemplateNotFound) {
		t.Fatalf("err = %v, want ErrTemplateNotFound", err)
	}
}

func TestMaintenanceBlocksUsers(t *testing.T) {
	dialer := messagingtest.NewDialer(nil)
	d := newDaemon(t, dialer, nil)
	startDaemon(t, d)

	if err := d.AllowAdd("628999999999"); err != nil {
		t.Fatalf("AllowAdd: %v", err)
	}
	if err := d.SetMaintenance(true); err != nil {
		t.Fatalf("SetMaintenance: %v", err)
	}
	_, err := d.Verify(context.Background(), "pattern", []string{"628111222333"}, "628999999999", nil)
	if !errors.Is(err, store.ErrMaintenance) {
		t.Fatalf("err = %v, want ErrMaintenance", err)
	}
	if err := d.SetMaintenance(false); err != nil {
		t.Fatalf("SetMaintenance off: %v", err)
	}
	_, err = d.Verify(context.Background(), "pattern", []string{"628111222333"}, "628999999999", nil)
	if errors.Is(err, store.ErrMaintenance) {
		t.Fatalf("maintenance still blocking: %v", err)
	}
}

func TestAccessAdministration(t *testing.T) {
	dialer := messagingtest.NewDialer(nil)
	d := newDaemon(t, dialer, nil)

	if err := d.AdminAdd("628100000001"); err != nil {
		t.Fatalf("AdminAdd: %v", err)
	}
	if got := d.AdminList(); len(got) != 1 || got[0] != "628100000001" {
		t.Fatalf("admins = %v", got)
	}

	until, err := d.PremiumGrant("628100000002", 7)
	if err != nil {
		t.Fatalf("PremiumGrant: %v", err)
	}
	if until.Before(time.Now().Add(6 * 24 * time.Hour)) {
		t.Fatalf("grant expires too soon: %v", until)
	}
	if grants := d.PremiumList(); len(grants) != 1 {
		t.Fatalf("grants = %+v", grants)
	}
	if _, err := d.PremiumGrant("628100000002", 0); err == nil {
		t.Fatal("zero-day grant accepted")
	}

	if err := d.SetPublic(true); err != nil {
		t.Fatalf("SetPublic: %v", err)
	}
	if !d.Status().Public {
		t.Fatal("public flag not reflected in status")
	}
}
