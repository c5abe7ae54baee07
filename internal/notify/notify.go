// Package notify delivers out-of-band operator notifications.
//
// Session lifecycle and job completion events are pushed over ntfy when a
// topic is configured; otherwise a no-op implementation is returned so
// callers never need nil checks.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"numcheck/internal/config"
)

const userAgent = "numcheck/0.1.0"

// Service defines the notification surface exposed to the supervisor and
// verification pipeline.
type Service interface {
	NotifySessionConnected(ctx context.Context, sessionName, selfID string) error
	NotifySessionLoggedOut(ctx context.Context, sessionName string) error
	NotifySessionsExhausted(ctx context.Context) error
	NotifyJobCompleted(ctx context.Context, kind string, total, registered int) error
	NotifyError(ctx context.Context, err error, where string) error
	Test(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		sessionEvents: cfg.Notifications.SessionEvents,
		jobEvents:     cfg.Notifications.JobEvents,
		errors:        cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	sessionEvents bool
	jobEvents     bool
	errors        bool
}

func (n *ntfyService) NotifySessionConnected(ctx context.Context, sessionName, selfID string) error {
	if !n.sessionEvents {
		return nil
	}
	return n.send(ctx, payload{
		title:   "numcheck - Session Connected",
		message: fmt.Sprintf("Session %s connected as %s", sessionName, selfID),
		tags:    []string{"numcheck", "session", "connected"},
	})
}

func (n *ntfyService) NotifySessionLoggedOut(ctx context.Context, sessionName string) error {
	if !n.sessionEvents {
		return nil
	}
	return n.send(ctx, payload{
		title:    "numcheck - Session Logged Out",
		message:  fmt.Sprintf("Session %s was logged out and removed; failing over", sessionName),
		tags:     []string{"numcheck", "session", "logged-out"},
		priority: "high",
	})
}

func (n *ntfyService) NotifySessionsExhausted(ctx context.Context) error {
	if !n.sessionEvents {
		return nil
	}
	return n.send(ctx, payload{
		title:    "numcheck - No Sessions Left",
		message:  "Every stored session failed; waiting for a new login",
		tags:     []string{"numcheck", "session", "exhausted"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, kind string, total, registered int) error {
	if !n.jobEvents {
		return nil
	}
	return n.send(ctx, payload{
		title:   "numcheck - Job Completed",
		message: fmt.Sprintf("%s job finished: %d checked, %d registered", kind, total, registered),
		tags:    []string{"numcheck", "job", "completed"},
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, where string) error {
	if !n.errors || err == nil {
		return nil
	}
	return n.send(ctx, payload{
		title:    "numcheck - Error",
		message:  fmt.Sprintf("%s: %v", where, err),
		tags:     []string{"numcheck", "error"},
		priority: "high",
	})
}

func (n *ntfyService) Test(ctx context.Context) error {
	return n.send(ctx, payload{
		title:   "numcheck - Test",
		message: "Notification delivery works",
		tags:    []string{"numcheck", "test"},
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification rejected: %s", resp.Status)
	}
	return nil
}

type noopService struct{}

func (noopService) NotifySessionConnected(context.Context, string, string) error { return nil }
func (noopService) NotifySessionLoggedOut(context.Context, string) error         { return nil }
func (noopService) NotifySessionsExhausted(context.Context) error                { return nil }
func (noopService) NotifyJobCompleted(context.Context, string, int, int) error   { return nil }
func (noopService) NotifyError(context.Context, error, string) error             { return nil }
func (noopService) Test(context.Context) error                                   { return nil }

// Noop returns the no-op service for tests and wiring code.
func Noop() Service {
	return noopService{}
}
