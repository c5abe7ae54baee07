package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"numcheck/internal/appeal"
	"numcheck/internal/history"
	"numcheck/internal/logging"
	"numcheck/internal/store"
	"numcheck/internal/supervisor"
	"numcheck/internal/verify"
)

// ErrUnknownJobKind indicates a verification request named no known job type.
var ErrUnknownJobKind = errors.New("daemon: unknown job kind")

// Status represents daemon runtime information.
type Status struct {
	Running    bool
	PID        int
	LockPath   string
	DBPath     string
	Supervisor supervisor.Status
	KnownUsers int
	Public     bool
}

// Status reports the daemon and connection state.
func (d *Daemon) Status() Status {
	return Status{
		Running:    d.running.Load(),
		PID:        os.Getpid(),
		LockPath:   d.lockPath,
		DBPath:     d.hist.Path(),
		Supervisor: d.sup.Status(),
		KnownUsers: d.users.Count(),
		Public:     d.settings.Public(),
	}
}

// Pair starts a pairing login for phone and returns the display code.
func (d *Daemon) Pair(ctx context.Context, phone string) (string, error) {
	return d.sup.Pair(ctx, phone)
}

// QRPayload returns the pending QR login payload, if any.
func (d *Daemon) QRPayload() string {
	return d.sup.QRPayload()
}

// RemoveSession evicts a stored session by name.
func (d *Daemon) RemoveSession(name string) error {
	return d.sup.RemoveSession(name)
}

// VerifyOutcome bundles a finished job with its report location.
type VerifyOutcome struct {
	Summary    *verify.Summary
	ReportPath string
}

// Verify runs a verification job and writes its report. RequestedBy, when
// set, is checked against the access gate and charged for the job.
func (d *Daemon) Verify(ctx context.Context, kind string, ids []string, requestedBy string, onProgress verify.ProgressFunc) (*VerifyOutcome, error) {
	if err := d.admit(requestedBy); err != nil {
		return nil, err
	}

	var (
		summary *verify.Summary
		err     error
	)
	switch verify.Kind(kind) {
	case verify.KindExistence:
		summary, err = d.runner.Existence(ctx, ids, onProgress)
	case verify.KindBio:
		summary, err = d.runner.Bio(ctx, ids, onProgress)
	case verify.KindPattern:
		summary, err = d.runner.Pattern(ctx, ids, onProgress)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownJobKind, kind)
	}
	if err != nil {
		return nil, err
	}
	return d.finishJob(ctx, summary, requestedBy), nil
}

// VerifyRange runs a range check over generated prefix+counter identifiers
// and writes its report.
func (d *Daemon) VerifyRange(ctx context.Context, prefix string, start, end int, requestedBy string, onProgress verify.ProgressFunc) (*VerifyOutcome, error) {
	if err := d.admit(requestedBy); err != nil {
		return nil, err
	}
	summary, err := d.runner.Range(ctx, prefix, start, end, onProgress)
	if err != nil {
		return nil, err
	}
	return d.finishJob(ctx, summary, requestedBy), nil
}

// admit checks requestedBy against the access gate. Empty means the local
// operator, who is not gated.
func (d *Daemon) admit(requestedBy string) error {
	if requestedBy == "" {
		return nil
	}
	return d.gate.Check(requestedBy, time.Now())
}

// finishJob writes the report and records the job in history and against the
// requesting user.
func (d *Daemon) finishJob(ctx context.Context, summary *verify.Summary, requestedBy string) *VerifyOutcome {
	var (
		reportPath string
		err        error
	)
	switch summary.Kind {
	case verify.KindExistence:
		reportPath, err = d.reports.WriteExistence(summary)
	case verify.KindBio:
		reportPath, err = d.reports.WriteBio(summary)
	case verify.KindPattern:
		reportPath, err = d.reports.WritePattern(summary)
	case verify.KindRange:
		reportPath, err = d.reports.WriteRange(summary)
	}
	if err != nil {
		d.logger.Warn("report write failed", logging.Error(err))
	}

	if err := d.hist.RecordJob(ctx, history.Job{
		ID:           summary.JobID,
		Kind:         string(summary.Kind),
		RequestedBy:  requestedBy,
		Total:        summary.Total,
		Registered:   summary.Registered,
		Unregistered: summary.Unregistered,
		Failed:       summary.Failed,
		ReportPath:   reportPath,
		StartedAt:    summary.StartedAt,
		FinishedAt:   summary.FinishedAt,
	}); err != nil {
		d.logger.Warn("job history record failed", logging.Error(err))
	}
	if requestedBy != "" {
		if err := d.users.RecordJob(requestedBy, time.Now()); err != nil {
			d.logger.Warn("user record failed", logging.Error(err))
		}
	}
	return &VerifyOutcome{Summary: summary, ReportPath: reportPath}
}

// ReportText renders a finished job the way it is delivered to users.
func (d *Daemon) ReportText(summary *verify.Summary) string {
	switch summary.Kind {
	case verify.KindBio:
		return d.reports.BioText(summary)
	case verify.KindPattern:
		return d.reports.PatternText(summary)
	case verify.KindRange:
		return d.reports.RangeText(summary)
	default:
		return d.reports.ExistenceText(summary)
	}
}

// Appeal sends one unblock appeal for id and records it. A requesting user
// who is neither owner nor admin is charged one appeal use.
func (d *Daemon) Appeal(ctx context.Context, id string, requestedBy string) (string, error) {
	if d.appeals == nil {
		return "", errors.New("daemon: mail is not configured")
	}
	if requestedBy != "" {
		if d.gate.IsOwner(requestedBy) || d.gate.IsAdmin(requestedBy) {
			if err := d.users.Touch(requestedBy, time.Now()); err != nil {
				d.logger.Warn("user record failed", logging.Error(err))
			}
		} else if _, err := d.users.ConsumeFix(requestedBy, time.Now()); err != nil {
			return "", err
		}
	}
	msg, err := d.appeals.Appeal(ctx, id)
	if err != nil {
		return "", err
	}
	if _, err := d.hist.RecordAppeal(ctx, history.Appeal{
		Identifier: id,
		Subject:    msg.Subject,
		Persona:    msg.Persona,
		SentAt:     time.Now(),
	}); err != nil {
		d.logger.Warn("appeal history record failed", logging.Error(err))
	}
	return msg.Subject, nil
}

// RecentJobs lists recently finished jobs, newest first.
func (d *Daemon) RecentJobs(ctx context.Context, limit int) ([]history.Job, error) {
	return d.hist.RecentJobs(ctx, limit)
}

// RecentAppeals lists recently sent appeals, newest first.
func (d *Daemon) RecentAppeals(ctx context.Context, limit int) ([]history.Appeal, error) {
	return d.hist.RecentAppeals(ctx, limit)
}

// Gate exposes the access gate for command front ends.
func (d *Daemon) Gate() *store.Gate {
	return d.gate
}

// AllowAdd grants id access to verification commands.
func (d *Daemon) AllowAdd(id string) error { return d.allowlist.Add(id) }

// AllowRemove revokes id's access.
func (d *Daemon) AllowRemove(id string) error { return d.allowlist.Remove(id) }

// AllowList returns all allowlisted identifiers.
func (d *Daemon) AllowList() []string { return d.allowlist.List() }

// AdminAdd promotes id to admin.
func (d *Daemon) AdminAdd(id string) error { return d.admins.Add(id) }

// AdminRemove demotes id.
func (d *Daemon) AdminRemove(id string) error { return d.admins.Remove(id) }

// AdminList returns all admin identifiers.
func (d *Daemon) AdminList() []string { return d.admins.List() }

// PremiumGrant gives id premium for the given number of days.
func (d *Daemon) PremiumGrant(id string, days int) (time.Time, error) {
	if days <= 0 {
		return time.Time{}, errors.New("daemon: premium days must be positive")
	}
	until := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	return until, d.premium.Grant(id, until)
}

// PremiumRevoke removes id's premium grant.
func (d *Daemon) PremiumRevoke(id string) error { return d.premium.Revoke(id) }

// PremiumList returns all premium grants.
func (d *Daemon) PremiumList() []store.Grant { return d.premium.List() }

// TemplateAdd stores a new appeal template. The body must carry the
// identifier placeholder.
func (d *Daemon) TemplateAdd(to, subject, body string) (store.Template, error) {
	if !strings.Contains(body, appeal.Placeholder) {
		return store.Template{}, fmt.Errorf("daemon: template body must contain %s", appeal.Placeholder)
	}
	if subject == "" {
		return store.Template{}, errors.New("daemon: template subject required")
	}
	return d.templates.Add(to, subject, body)
}

// TemplateRemove deletes an appeal template by id.
func (d *Daemon) TemplateRemove(id int) error { return d.templates.Remove(id) }

// TemplateActivate selects the template appeals are sent from.
func (d *Daemon) TemplateActivate(id int) error { return d.templates.SetActive(id) }

// TemplateList returns all stored templates and the active id.
func (d *Daemon) TemplateList() ([]store.Template, int) { return d.templates.List() }

// UserInfo returns the activity record for one user identifier.
func (d *Daemon) UserInfo(id string) (store.UserRecord, bool) { return d.users.Get(id) }

// UserIDs returns all known user identifiers, sorted.
func (d *Daemon) UserIDs() []string { return d.users.IDs() }

// SetFixLimit replaces a user's appeal allowance.
func (d *Daemon) SetFixLimit(id string, n int) error {
	if n < 0 {
		return errors.New("daemon: appeal limit must not be negative")
	}
	return d.users.SetFixLimit(id, n, time.Now())
}

// SetPublic flips public access for verification commands.
func (d *Daemon) SetPublic(on bool) error { return d.settings.SetPublic(on) }

// SetMaintenance flips maintenance mode.
func (d *Daemon) SetMaintenance(on bool) error { return d.settings.SetMaintenance(on) }

// TestNotification sends a test push notification.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if err := d.notifier.Test(ctx); err != nil {
		return false, err.Error(), err
	}
	return true, "notification sent", nil
}
