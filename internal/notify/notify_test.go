package notify_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"numcheck/internal/config"
	"numcheck/internal/notify"
)

type recorded struct {
	title string
	body  string
}

func newRecordingServer(t *testing.T) (*httptest.Server, func() []recorded) {
	t.Helper()
	var mu sync.Mutex
	var got []recorded
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		got = append(got, recorded{title: r.Header.Get("Title"), body: string(body)})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), got...)
	}
}

func newConfig(topic string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	cfg.Notifications.RequestTimeout = 5
	return &cfg
}

func TestNoopWithoutTopic(t *testing.T) {
	svc := notify.NewService(newConfig(""))
	if err := svc.NotifySessionsExhausted(context.Background()); err != nil {
		t.Fatalf("noop service returned error: %v", err)
	}
}

func TestSessionConnectedDelivers(t *testing.T) {
	server, recordedFn := newRecordingServer(t)
	svc := notify.NewService(newConfig(server.URL))

	if err := svc.NotifySessionConnected(context.Background(), "628111", "628111:1"); err != nil {
		t.Fatalf("NotifySessionConnected failed: %v", err)
	}
	msgs := recordedFn()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(msgs))
	}
	if msgs[0].title != "numcheck - Session Connected" {
		t.Fatalf("unexpected title %q", msgs[0].title)
	}
}

func TestDisabledCategorySuppressed(t *testing.T) {
	server, recordedFn := newRecordingServer(t)
	cfg := newConfig(server.URL)
	cfg.Notifications.SessionEvents = false
	svc := notify.NewService(cfg)

	if err := svc.NotifySessionLoggedOut(context.Background(), "628111"); err != nil {
		t.Fatalf("suppressed notification returned error: %v", err)
	}
	if len(recordedFn()) != 0 {
		t.Fatal("expected no notification for disabled category")
	}
}

func TestErrorNotificationSkipsNil(t *testing.T) {
	server, recordedFn := newRecordingServer(t)
	svc := notify.NewService(newConfig(server.URL))

	if err := svc.NotifyError(context.Background(), nil, "supervisor"); err != nil {
		t.Fatalf("nil error notification failed: %v", err)
	}
	if len(recordedFn()) != 0 {
		t.Fatal("expected no notification for nil error")
	}
	if err := svc.NotifyError(context.Background(), errors.New("boom"), "supervisor"); err != nil {
		t.Fatalf("NotifyError failed: %v", err)
	}
	if len(recordedFn()) != 1 {
		t.Fatal("expected one notification for real error")
	}
}

func TestRejectedResponseSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	svc := notify.NewService(newConfig(server.URL))
	if err := svc.Test(context.Background()); err == nil {
		t.Fatal("expected error for rejected notification")
	}
}
