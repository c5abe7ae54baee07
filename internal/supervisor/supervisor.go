package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"numcheck/internal/logging"
	"numcheck/internal/messaging"
	"numcheck/internal/notify"
	"numcheck/internal/session"
)

// State identifies the supervisor's connection lifecycle position.
type State int

const (
	// StateIdle means no stored session is available to connect.
	StateIdle State = iota
	// StateConnecting means a session is being dialed or is mid-handshake.
	StateConnecting
	// StateOpen means the connection is live and lookups may proceed.
	StateOpen
	// StateClosing means the supervisor is shutting down.
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// ErrNotRunning indicates an operation was requested before Start.
var ErrNotRunning = errors.New("supervisor: not running")

// Options configures supervisor construction.
type Options struct {
	Registry       *session.Registry
	Dialer         messaging.Dialer
	Notifier       notify.Service
	Logger         *slog.Logger
	ReconnectDelay time.Duration
}

// Supervisor owns the single live connection to the messaging network. It
// rotates through stored sessions on permanent logouts, retries the current
// session in place on transient drops, and goes idle when the registry is
// exhausted. Other components never see the connection handle; they borrow
// the Lookuper capability.
type Supervisor struct {
	registry       *session.Registry
	dialer         messaging.Dialer
	notifier       notify.Service
	logger         *slog.Logger
	reconnectDelay time.Duration

	mu        sync.Mutex
	running   bool
	state     State
	current   session.Session
	client    messaging.Client
	gen       int
	qr        string
	lastErr   error
	switching bool
	runCtx    context.Context
	cancel    context.CancelFunc
	watcher   *fsnotify.Watcher
	wg        sync.WaitGroup
}

// New constructs a supervisor. Registry and dialer are required.
func New(opts Options) (*Supervisor, error) {
	if opts.Registry == nil {
		return nil, errors.New("supervisor: registry required")
	}
	if opts.Dialer == nil {
		return nil, errors.New("supervisor: dialer required")
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Noop()
	}
	delay := opts.ReconnectDelay
	if delay <= 0 {
		delay = 3 * time.Second
	}
	return &Supervisor{
		registry:       opts.Registry,
		dialer:         opts.Dialer,
		notifier:       notifier,
		logger:         logging.NewComponentLogger(opts.Logger, "supervisor"),
		reconnectDelay: delay,
		state:          StateIdle,
	}, nil
}

// Start begins supervising: it watches the session store and connects to the
// first stored session, if any.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("supervisor already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.runCtx = runCtx
	s.cancel = cancel
	s.running = true
	s.mu.Unlock()

	s.startWatcher(runCtx)

	sessions, err := s.registry.Scan()
	if err != nil {
		s.logger.Warn("initial session scan failed", logging.Error(err))
	}
	if len(sessions) == 0 {
		s.logger.Info("no stored sessions; waiting for a login",
			logging.String(logging.FieldEventType, "supervisor_idle"))
		return nil
	}

	s.logger.Info("connecting to first stored session",
		logging.String(logging.FieldSession, sessions[0].Name),
		logging.Int("stored", len(sessions)))
	s.connect(runCtx, sessions[0])
	return nil
}

// Stop tears down the connection and background goroutines.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.state = StateClosing
	cancel := s.cancel
	s.cancel = nil
	client := s.client
	s.client = nil
	watcher := s.watcher
	s.watcher = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if watcher != nil {
		_ = watcher.Close()
	}
	if client != nil {
		_ = client.Close()
	}
	s.wg.Wait()
	s.logger.Info("supervisor stopped")
}

// Lookuper returns the lookup capability of the live connection. The second
// return is false whenever the connection is not open.
func (s *Supervisor) Lookuper() (messaging.Lookuper, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOpen || s.client == nil {
		return nil, false
	}
	return s.client, true
}

// QRPayload returns the most recent QR login payload, if one is pending.
func (s *Supervisor) QRPayload() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.qr
}

// Pair admits a new session named after phone and starts a pairing login on
// it. A pairing request while a connection is open intentionally takes the
// connection over; the displaced session stays in the registry.
func (s *Supervisor) Pair(ctx context.Context, phone string) (string, error) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return "", ErrNotRunning
	}
	runCtx := s.runCtx
	s.mu.Unlock()

	sess, err := s.registry.Admit(phone)
	if err != nil {
		return "", err
	}

	s.logger.Info("starting pairing login",
		logging.String(logging.FieldSession, sess.Name),
		logging.String(logging.FieldEventType, "pairing_started"))
	s.connect(runCtx, sess)

	s.mu.Lock()
	client := s.client
	s.mu.Unlock()
	if client == nil {
		return "", errors.New("supervisor: connection unavailable for pairing")
	}
	code, err := client.RequestPairingCode(ctx, phone)
	if err != nil {
		return "", fmt.Errorf("request pairing code: %w", err)
	}
	return messaging.FormatPairingCode(code), nil
}

// RemoveSession evicts a stored session by name. Removing the active session
// triggers a failover to the next stored one.
func (s *Supervisor) RemoveSession(name string) error {
	sess, err := s.registry.Find(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	active := s.running && s.current.Name == name && s.state != StateIdle
	gen := s.gen
	runCtx := s.runCtx
	s.mu.Unlock()

	if err := s.registry.Evict(sess); err != nil {
		return err
	}
	s.logger.Info("session removed by operator", logging.String(logging.FieldSession, name))
	if active {
		go s.failover(runCtx, gen, false)
	}
	return nil
}

// connect dials a session and installs the resulting client as the current
// connection. Any previous connection is closed first; its remaining events
// are discarded by the generation check.
func (s *Supervisor) connect(ctx context.Context, sess session.Session) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.state = StateConnecting
	s.current = sess
	s.qr = ""
	s.gen++
	gen := s.gen
	old := s.client
	s.client = nil
	s.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	client, events, err := s.dialer.Dial(ctx, sess.Path)
	if err != nil {
		s.logger.Error("dial session failed",
			logging.String(logging.FieldSession, sess.Name),
			logging.Error(err))
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		go s.failover(ctx, gen, true)
		return
	}

	s.mu.Lock()
	if gen != s.gen || !s.running {
		s.mu.Unlock()
		_ = client.Close()
		return
	}
	s.client = client
	s.mu.Unlock()

	s.wg.Add(1)
	go s.pump(ctx, gen, sess, events)
}

func (s *Supervisor) pump(ctx context.Context, gen int, sess session.Session, events <-chan messaging.ConnEvent) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.handleEvent(ctx, gen, sess, ev)
		}
	}
}

func (s *Supervisor) handleEvent(ctx context.Context, gen int, sess session.Session, ev messaging.ConnEvent) {
	s.mu.Lock()
	if gen != s.gen || !s.running {
		s.mu.Unlock()
		return
	}

	switch ev.Kind {
	case messaging.EventQR:
		s.qr = ev.QRPayload
		s.mu.Unlock()
		s.logger.Info("qr payload received",
			logging.String(logging.FieldSession, sess.Name),
			logging.String(logging.FieldEventType, "qr_received"))

	case messaging.EventOpen:
		s.state = StateOpen
		s.qr = ""
		s.switching = false
		s.lastErr = nil
		client := s.client
		s.mu.Unlock()

		selfID := ""
		if client != nil {
			selfID = client.SelfID()
		}
		s.logger.Info("session connected",
			logging.String(logging.FieldSession, sess.Name),
			logging.String("self_id", selfID),
			logging.String(logging.FieldEventType, "session_connected"))
		if err := s.notifier.NotifySessionConnected(ctx, sess.Name, selfID); err != nil {
			s.logger.Warn("connected notification failed", logging.Error(err))
		}

	case messaging.EventClosed:
		s.lastErr = ev.Err
		s.mu.Unlock()

		if ev.Reason == messaging.ReasonLoggedOut {
			s.logger.Warn("session logged out by network",
				logging.String(logging.FieldSession, sess.Name),
				logging.String(logging.FieldEventType, "session_logged_out"),
				logging.Error(ev.Err))
			s.failover(ctx, gen, true)
			return
		}
		s.logger.Warn("connection dropped; retrying same session",
			logging.String(logging.FieldSession, sess.Name),
			logging.String(logging.FieldEventType, "connection_dropped"),
			logging.Error(ev.Err))
		s.retry(ctx, gen, sess)
	}
}

// retry redials the current session in place after a transient drop. The
// session is not evicted.
func (s *Supervisor) retry(ctx context.Context, gen int, sess session.Session) {
	s.mu.Lock()
	if gen != s.gen || s.switching || !s.running {
		s.mu.Unlock()
		return
	}
	s.switching = true
	s.state = StateConnecting
	s.mu.Unlock()

	if !sleep(ctx, s.reconnectDelay) {
		return
	}

	s.mu.Lock()
	s.switching = false
	s.mu.Unlock()
	s.connect(ctx, sess)
}

// failover advances to the next stored session. With evict set, the failed
// session's credentials are deleted first. Only one failover runs at a time;
// re-entrant requests are dropped.
func (s *Supervisor) failover(ctx context.Context, gen int, evict bool) {
	s.mu.Lock()
	if gen != s.gen || s.switching || !s.running {
		s.mu.Unlock()
		return
	}
	s.switching = true
	failed := s.current
	s.state = StateConnecting
	s.mu.Unlock()

	if evict && failed.Path != "" {
		if err := s.registry.Evict(failed); err != nil {
			s.logger.Error("evict failed session", logging.Error(err),
				logging.String(logging.FieldSession, failed.Name))
		} else {
			s.logger.Info("failed session evicted",
				logging.String(logging.FieldSession, failed.Name),
				logging.String(logging.FieldEventType, "session_evicted"))
		}
		if err := s.notifier.NotifySessionLoggedOut(ctx, failed.Name); err != nil {
			s.logger.Warn("logout notification failed", logging.Error(err))
		}
	}

	if !sleep(ctx, s.reconnectDelay) {
		return
	}

	sessions, err := s.registry.Scan()
	if err != nil {
		s.logger.Error("session scan during failover failed", logging.Error(err))
		sessions = nil
	}

	if len(sessions) == 0 {
		s.mu.Lock()
		s.state = StateIdle
		s.current = session.Session{}
		old := s.client
		s.client = nil
		s.switching = false
		s.mu.Unlock()
		if old != nil {
			_ = old.Close()
		}
		s.logger.Info("no sessions left; supervisor idle",
			logging.String(logging.FieldEventType, "sessions_exhausted"))
		if err := s.notifier.NotifySessionsExhausted(ctx); err != nil {
			s.logger.Warn("exhausted notification failed", logging.Error(err))
		}
		return
	}

	next := sessions[0]
	s.logger.Info("failing over to next session",
		logging.String(logging.FieldSession, next.Name))
	s.mu.Lock()
	s.switching = false
	s.mu.Unlock()
	s.connect(ctx, next)
}

func (s *Supervisor) startWatcher(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Warn("session watcher unavailable", logging.Error(err))
		return
	}
	if err := watcher.Add(s.registry.Root()); err != nil {
		s.logger.Warn("watch sessions directory", logging.Error(err))
		_ = watcher.Close()
		return
	}

	s.mu.Lock()
	s.watcher = watcher
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !ev.Op.Has(fsnotify.Create) {
					continue
				}
				s.onSessionStored(ctx)
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("session watcher error", logging.Error(werr))
			}
		}
	}()
}

// onSessionStored connects to a freshly stored session when the supervisor
// has nothing to do. Connections in flight win via the generation check.
func (s *Supervisor) onSessionStored(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateIdle || s.switching || !s.running {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	sessions, err := s.registry.Scan()
	if err != nil || len(sessions) == 0 {
		return
	}
	s.logger.Info("session appeared while idle; connecting",
		logging.String(logging.FieldSession, sessions[0].Name))
	s.connect(ctx, sessions[0])
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
