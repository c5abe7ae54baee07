package store_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"numcheck/internal/store"
)

func TestRosterPersistsAcrossLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowlist.json")

	roster, err := store.NewRoster(path)
	if err != nil {
		t.Fatalf("NewRoster: %v", err)
	}
	if err := roster.Add("628111111111"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := roster.Add("628122222222"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := roster.Remove("628111111111"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	reloaded, err := store.NewRoster(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Contains("628111111111") {
		t.Fatal("removed id survived reload")
	}
	if !reloaded.Contains("628122222222") {
		t.Fatal("added id lost on reload")
	}
}

func TestRosterStartsEmptyWithoutFile(t *testing.T) {
	roster, err := store.NewRoster(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("NewRoster: %v", err)
	}
	if got := roster.List(); len(got) != 0 {
		t.Fatalf("List = %v, want empty", got)
	}
}

func TestPremiumExpiryAndSweep(t *testing.T) {
	path := filepath.Join(t.TempDir(), "premium.json")
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	premium, err := store.NewPremium(path)
	if err != nil {
		t.Fatalf("NewPremium: %v", err)
	}
	if err := premium.Grant("active", now.Add(24*time.Hour)); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if err := premium.Grant("expired", now.Add(-time.Hour)); err != nil {
		t.Fatalf("Grant: %v", err)
	}

	if !premium.Active("active", now) {
		t.Fatal("unexpired grant inactive")
	}
	if premium.Active("expired", now) {
		t.Fatal("expired grant active")
	}
	if premium.Active("unknown", now) {
		t.Fatal("unknown id active")
	}

	removed, err := premium.Sweep(now)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(removed) != 1 || removed[0] != "expired" {
		t.Fatalf("removed = %v", removed)
	}

	reloaded, err := store.NewPremium(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.Active("active", now) {
		t.Fatal("active grant lost after sweep")
	}
	if len(reloaded.List()) != 1 {
		t.Fatalf("grants = %v", reloaded.List())
	}
}

func TestUsersAccumulate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	first := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	later := first.Add(time.Hour)

	users, err := store.NewUsers(path)
	if err != nil {
		t.Fatalf("NewUsers: %v", err)
	}
	if err := users.Touch("628111111111", first); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	if err := users.RecordJob("628111111111", later); err != nil {
		t.Fatalf("RecordJob: %v", err)
	}

	rec, ok := users.Get("628111111111")
	if !ok {
		t.Fatal("record missing")
	}
	if !rec.FirstSeen.Equal(first) || !rec.LastSeen.Equal(later) || rec.Jobs != 1 {
		t.Fatalf("record = %+v", rec)
	}
}

func TestUsersAppealAllowance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	users, err := store.NewUsers(path)
	if err != nil {
		t.Fatalf("NewUsers: %v", err)
	}

	remaining, err := users.ConsumeFix("628111111111", now)
	if err != nil {
		t.Fatalf("ConsumeFix: %v", err)
	}
	if remaining != store.DefaultFixLimit-1 {
		t.Fatalf("remaining = %d, want %d", remaining, store.DefaultFixLimit-1)
	}
	rec, ok := users.Get("628111111111")
	if !ok {
		t.Fatal("record missing after first charge")
	}
	if !rec.LastFix.Equal(now) {
		t.Fatalf("last fix = %v, want %v", rec.LastFix, now)
	}

	if err := users.SetFixLimit("628111111111", 1, now); err != nil {
		t.Fatalf("SetFixLimit: %v", err)
	}
	if _, err := users.ConsumeFix("628111111111", now.Add(time.Minute)); err != nil {
		t.Fatalf("ConsumeFix after reset: %v", err)
	}
	if _, err := users.ConsumeFix("628111111111", now.Add(2*time.Minute)); !errors.Is(err, store.ErrFixLimitExhausted) {
		t.Fatalf("err = %v, want ErrFixLimitExhausted", err)
	}

	reloaded, err := store.NewUsers(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	rec, _ = reloaded.Get("628111111111")
	if rec.FixLimit != 0 {
		t.Fatalf("fix limit = %d after reload, want 0", rec.FixLimit)
	}
}

func TestTemplatesLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")

	templates, err := store.NewTemplates(path)
	if err != nil {
		t.Fatalf("NewTemplates: %v", err)
	}
	if _, ok := templates.Active(); ok {
		t.Fatal("empty store has an active template")
	}

	first, err := templates.Add("support@example.com", "Review request", "Please review {nomor}.")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	second, err := templates.Add("", "Second look", "Account {nomor} again.")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("ids = %d, %d, want 1, 2", first.ID, second.ID)
	}

	if err := templates.SetActive(second.ID); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if err := templates.SetActive(99); !errors.Is(err, store.ErrTemplateNotFound) {
		t.Fatalf("err = %v, want ErrTemplateNotFound", err)
	}

	reloaded, err := store.NewTemplates(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	active, ok := reloaded.Active()
	if !ok || active.ID != second.ID || active.Subject != "Second look" {
		t.Fatalf("active = %+v ok = %v", active, ok)
	}

	// Removing the active template clears the selection.
	if err := reloaded.Remove(second.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := reloaded.Active(); ok {
		t.Fatal("removed template still active")
	}
	list, activeID := reloaded.List()
	if len(list) != 1 || list[0].ID != first.ID || activeID != 0 {
		t.Fatalf("list = %+v active = %d", list, activeID)
	}

	// Ids keep counting up from the last stored template.
	third, err := reloaded.Add("", "Third", "Number {nomor}.")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if third.ID != 2 {
		t.Fatalf("id = %d, want 2", third.ID)
	}
}

type gateFixture struct {
	admins    *store.Roster
	allowlist *store.Roster
	premium   *store.Premium
	settings  *store.Settings
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	dir := t.TempDir()
	admins, err := store.NewRoster(filepath.Join(dir, "admins.json"))
	if err != nil {
		t.Fatalf("admins: %v", err)
	}
	allowlist, err := store.NewRoster(filepath.Join(dir, "allowlist.json"))
	if err != nil {
		t.Fatalf("allowlist: %v", err)
	}
	premium, err := store.NewPremium(filepath.Join(dir, "premium.json"))
	if err != nil {
		t.Fatalf("premium: %v", err)
	}
	settings, err := store.NewSettings(filepath.Join(dir, "settings.json"))
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	return &gateFixture{admins: admins, allowlist: allowlist, premium: premium, settings: settings}
}

func (f *gateFixture) gate(owner string, cooldown time.Duration) *store.Gate {
	return store.NewGate(owner, f.admins, f.allowlist, f.premium, f.settings, cooldown)
}

func TestGateDeniesStrangers(t *testing.T) {
	f := newGateFixture(t)
	gate := f.gate("owner", 0)
	now := time.Now()

	if err := gate.Check("stranger", now); !errors.Is(err, store.ErrDenied) {
		t.Fatalf("err = %v, want ErrDenied", err)
	}
	if err := gate.Check("owner", now); err != nil {
		t.Fatalf("owner denied: %v", err)
	}
}

func TestGatePublicModeAdmitsAnyone(t *testing.T) {
	f := newGateFixture(t)
	if err := f.settings.SetPublic(true); err != nil {
		t.Fatalf("SetPublic: %v", err)
	}
	gate := f.gate("owner", 0)

	if err := gate.Check("stranger", time.Now()); err != nil {
		t.Fatalf("stranger denied in public mode: %v", err)
	}
}

func TestGateCooldownAppliesToRegularUsers(t *testing.T) {
	f := newGateFixture(t)
	if err := f.allowlist.Add("user"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	gate := f.gate("owner", time.Minute)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	if err := gate.Check("user", now); err != nil {
		t.Fatalf("first use: %v", err)
	}

	err := gate.Check("user", now.Add(10*time.Second))
	var cooldown *store.CooldownError
	if !errors.As(err, &cooldown) {
		t.Fatalf("err = %v, want CooldownError", err)
	}
	if cooldown.Remaining != 50*time.Second {
		t.Fatalf("remaining = %v, want 50s", cooldown.Remaining)
	}

	if err := gate.Check("user", now.Add(2*time.Minute)); err != nil {
		t.Fatalf("after cooldown: %v", err)
	}
}

func TestGatePremiumSkipsCooldown(t *testing.T) {
	f := newGateFixture(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := f.premium.Grant("vip", now.Add(time.Hour)); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	gate := f.gate("owner", time.Minute)

	for i := 0; i < 3; i++ {
		if err := gate.Check("vip", now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("premium use %d: %v", i, err)
		}
	}
}

func TestGateMaintenanceBlocksAllButOwner(t *testing.T) {
	f := newGateFixture(t)
	if err := f.admins.Add("admin"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := f.settings.SetMaintenance(true); err != nil {
		t.Fatalf("SetMaintenance: %v", err)
	}
	gate := f.gate("owner", 0)
	now := time.Now()

	if err := gate.Check("admin", now); !errors.Is(err, store.ErrMaintenance) {
		t.Fatalf("admin err = %v, want ErrMaintenance", err)
	}
	if err := gate.Check("owner", now); err != nil {
		t.Fatalf("owner blocked by maintenance: %v", err)
	}
}
