package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"numcheck/internal/appeal"
	"numcheck/internal/config"
	"numcheck/internal/history"
	"numcheck/internal/logging"
	"numcheck/internal/messaging"
	"numcheck/internal/notify"
	"numcheck/internal/report"
	"numcheck/internal/session"
	"numcheck/internal/store"
	"numcheck/internal/supervisor"
	"numcheck/internal/verify"
)

// supportAddress receives account appeals.
const supportAddress = "support@whatsapp.com"

// Daemon coordinates the supervisor, verification runner and stores, and
// enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	notifier notify.Service

	registry *session.Registry
	sup      *supervisor.Supervisor
	runner   *verify.Runner
	reports  *report.Writer
	hist     *history.Store

	admins    *store.Roster
	allowlist *store.Roster
	premium   *store.Premium
	settings  *store.Settings
	users     *store.Users
	templates *store.Templates
	gate      *store.Gate

	appeals *appeal.Sender

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Options configures daemon construction. Config and Dialer are required.
type Options struct {
	Config *config.Config
	Logger *slog.Logger
	Dialer messaging.Dialer

	// Notifier and MailTransport override the config-derived defaults,
	// mainly for tests.
	Notifier      notify.Service
	MailTransport appeal.Transport
}

// New constructs a daemon with initialized dependencies.
func New(opts Options) (*Daemon, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if opts.Dialer == nil {
		return nil, errors.New("daemon requires a messaging dialer")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NewService(cfg)
	}

	registry, err := session.NewRegistry(cfg.SessionsDir)
	if err != nil {
		return nil, err
	}

	sup, err := supervisor.New(supervisor.Options{
		Registry:       registry,
		Dialer:         opts.Dialer,
		Notifier:       notifier,
		Logger:         logger,
		ReconnectDelay: time.Duration(cfg.Supervisor.ReconnectDelay) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	runner, err := verify.NewRunner(verify.Options{
		Source:   sup,
		Notifier: notifier,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	hist, err := history.Open(cfg)
	if err != nil {
		return nil, err
	}

	admins, err := store.NewRoster(filepath.Join(cfg.DatabaseDir, "admins.json"))
	if err != nil {
		return nil, err
	}
	allowlist, err := store.NewRoster(filepath.Join(cfg.DatabaseDir, "allowlist.json"))
	if err != nil {
		return nil, err
	}
	premium, err := store.NewPremium(filepath.Join(cfg.DatabaseDir, "premium.json"))
	if err != nil {
		return nil, err
	}
	settings, err := store.NewSettings(filepath.Join(cfg.DatabaseDir, "settings.json"))
	if err != nil {
		return nil, err
	}
	users, err := store.NewUsers(filepath.Join(cfg.DatabaseDir, "users.json"))
	if err != nil {
		return nil, err
	}
	templates, err := store.NewTemplates(filepath.Join(cfg.DatabaseDir, "templates.json"))
	if err != nil {
		return nil, err
	}
	gate := store.NewGate(cfg.Access.OwnerID, admins, allowlist, premium, settings,
		time.Duration(cfg.Access.CooldownSeconds)*time.Second)

	d := &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		notifier:  notifier,
		registry:  registry,
		sup:       sup,
		runner:    runner,
		reports:   report.NewWriter(cfg.ReportDir, nil),
		hist:      hist,
		admins:    admins,
		allowlist: allowlist,
		premium:   premium,
		settings:  settings,
		users:     users,
		templates: templates,
		gate:      gate,
		lockPath:  filepath.Join(cfg.LogDir, "numcheckd.lock"),
	}
	d.lock = flock.New(d.lockPath)

	transport := opts.MailTransport
	if transport == nil {
		transport, err = appeal.NewSMTPTransport(cfg.Mail)
		if err != nil && !errors.Is(err, appeal.ErrNotConfigured) {
			return nil, err
		}
	}
	if transport != nil {
		d.appeals, err = appeal.NewSender(appeal.SenderOptions{
			Transport: transport,
			ActiveTemplate: func() (appeal.Template, bool) {
				tpl, ok := templates.Active()
				if !ok {
					return appeal.Template{}, false
				}
				return appeal.Template{To: tpl.To, Subject: tpl.Subject, Body: tpl.Body}, true
			},
			From:   cfg.Mail.Username,
			To:     []string{supportAddress},
			Logger: logger,
		})
		if err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Start acquires the single-instance lock and launches the supervisor and
// background maintenance.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another instance holds %s", d.lockPath)
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.sup.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	d.running.Store(true)
	d.startPremiumSweep(runCtx)
	d.logger.Info("daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.Int("pid", os.Getpid()))
	return nil
}

// Stop shuts everything down and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Swap(false) {
		return
	}
	if d.cancel != nil {
		d.cancel()
	}
	d.sup.Stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release daemon lock", logging.Error(err))
	}
	d.logger.Info("daemon stopped",
		logging.String(logging.FieldEventType, "daemon_stop"))
}

// Close releases resources held open across Start/Stop cycles.
func (d *Daemon) Close() error {
	return d.hist.Close()
}

// Running reports whether Start has succeeded and Stop has not been called.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// LogPath returns the daemon log file location.
func (d *Daemon) LogPath() string {
	return filepath.Join(d.cfg.LogDir, "numcheck.log")
}

// startPremiumSweep expires premium grants on the configured interval.
func (d *Daemon) startPremiumSweep(ctx context.Context) {
	interval := time.Duration(d.cfg.Access.PremiumSweep) * time.Minute
	if interval <= 0 {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := d.premium.Sweep(time.Now())
				if err != nil {
					d.logger.Warn("premium sweep failed", logging.Error(err))
					continue
				}
				if len(removed) > 0 {
					d.logger.Info("premium grants expired",
						logging.Int("expired", len(removed)))
				}
			}
		}
	}()
}
