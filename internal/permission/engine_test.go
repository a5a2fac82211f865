package permission

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server-warden/internal/moderation"
)

type fakeSource struct {
	cfg   moderation.PermissionConfig
	err   error
	reads int
}

func (f *fakeSource) PermissionConfig() (moderation.PermissionConfig, error) {
	f.reads++
	return f.cfg, f.err
}

func testConfig() moderation.PermissionConfig {
	return moderation.PermissionConfig{
		StaffRoles: []string{"staff-role"},
		Commands: map[string]moderation.CommandPolicy{
			"ban": {Enabled: true},
			"ping": {
				Enabled: true,
				Public:  true,
			},
			"nuke": {Enabled: false},
			"purge": {
				Enabled:   true,
				Whitelist: []string{"trusted-role"},
				Blacklist: []string{"banned-role"},
			},
			"panel": {
				Enabled:   true,
				OwnerOnly: true,
				Whitelist: []string{"panel-role"},
			},
		},
	}
}

func newTestEngine(src ConfigSource) *Engine {
	return NewEngine(src, time.Minute, zerolog.Nop())
}

func TestEvaluatePrecedence(t *testing.T) {
	e := newTestEngine(&fakeSource{cfg: testConfig()})

	cases := []struct {
		name    string
		command string
		caller  CallerContext
		allowed bool
		reason  string
	}{
		{"unregistered command", "missing", CallerContext{}, false, ReasonNotRegistered},
		{"unregistered beats owner", "missing", CallerContext{IsOwner: true}, false, ReasonNotRegistered},
		{"owner bypass", "ban", CallerContext{IsOwner: true}, true, ReasonOwnerBypass},
		{"owner bypass overrides disabled", "nuke", CallerContext{IsOwner: true}, true, ReasonOwnerBypass},
		{"disabled denies staff", "nuke", CallerContext{RoleIDs: []string{"staff-role"}}, false, ReasonDisabled},
		{"public open to anyone", "ping", CallerContext{RoleIDs: []string{"random"}}, true, ReasonPublic},
		{"public open to roleless", "ping", CallerContext{}, true, ReasonPublic},
		{"blacklist beats whitelist and staff", "purge",
			CallerContext{RoleIDs: []string{"banned-role", "trusted-role", "staff-role"}}, false, ReasonBlacklisted},
		{"whitelisted role", "purge", CallerContext{RoleIDs: []string{"trusted-role"}}, true, ReasonWhitelisted},
		{"staff role", "ban", CallerContext{RoleIDs: []string{"staff-role"}}, true, ReasonStaff},
		{"no grant on staff-gated command", "ban", CallerContext{RoleIDs: []string{"random"}}, false, ReasonStaffOnly},
		{"no grant on whitelisted command", "purge", CallerContext{RoleIDs: []string{"random"}}, false, ReasonNoPermission},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v := e.Evaluate(c.command, c.caller)
			if v.Allowed != c.allowed || v.Reason != c.reason {
				t.Errorf("Evaluate(%q, %+v) = %+v, want {%v %q}",
					c.command, c.caller, v, c.allowed, c.reason)
			}
		})
	}
}

func TestOwnerOnlyCommand(t *testing.T) {
	e := newTestEngine(&fakeSource{cfg: testConfig()})

	// Staff roles are not sufficient for an owner-only command.
	v := e.Evaluate("panel", CallerContext{RoleIDs: []string{"staff-role"}})
	if v.Allowed {
		t.Errorf("staff should not reach an owner-only command, got %+v", v)
	}
	if v.Reason != ReasonNoPermission {
		t.Errorf("owner-only denial reason = %q, want %q", v.Reason, ReasonNoPermission)
	}

	v = e.Evaluate("panel", CallerContext{IsOwner: true})
	if !v.Allowed || v.Reason != ReasonOwnerBypass {
		t.Errorf("owner should reach an owner-only command, got %+v", v)
	}

	v = e.Evaluate("panel", CallerContext{RoleIDs: []string{"panel-role"}})
	if !v.Allowed || v.Reason != ReasonWhitelisted {
		t.Errorf("whitelisted role should reach an owner-only command, got %+v", v)
	}
}

func TestFailClosedOnConfigError(t *testing.T) {
	src := &fakeSource{err: errors.New("store unreachable")}
	e := newTestEngine(src)

	v := e.Evaluate("ban", CallerContext{RoleIDs: []string{"staff-role"}})
	if v.Allowed || v.Reason != ReasonInternalError {
		t.Errorf("config error should deny with internal error, got %+v", v)
	}

	// Even the owner is denied when the configuration cannot be read:
	// there is no snapshot to evaluate against.
	v = e.Evaluate("ban", CallerContext{IsOwner: true})
	if v.Allowed {
		t.Errorf("owner should also fail closed without a snapshot, got %+v", v)
	}
}

func TestSnapshotCachedWithinTTL(t *testing.T) {
	src := &fakeSource{cfg: testConfig()}
	e := newTestEngine(src)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return now }

	e.Evaluate("ban", CallerContext{})
	e.Evaluate("ping", CallerContext{})
	e.Evaluate("purge", CallerContext{})
	if src.reads != 1 {
		t.Fatalf("config read %d times within TTL, want 1", src.reads)
	}

	// Config changes are invisible until the TTL lapses.
	src.cfg.Commands["ban"] = moderation.CommandPolicy{Enabled: false}
	if v := e.Evaluate("ban", CallerContext{RoleIDs: []string{"staff-role"}}); !v.Allowed {
		t.Errorf("stale snapshot should still allow, got %+v", v)
	}

	now = now.Add(61 * time.Second)
	if v := e.Evaluate("ban", CallerContext{RoleIDs: []string{"staff-role"}}); v.Allowed {
		t.Errorf("rebuilt snapshot should deny the now-disabled command, got %+v", v)
	}
	if src.reads != 2 {
		t.Errorf("config read %d times after TTL expiry, want 2", src.reads)
	}
}

func TestInvalidateForcesRebuild(t *testing.T) {
	src := &fakeSource{cfg: testConfig()}
	e := newTestEngine(src)

	e.Evaluate("ban", CallerContext{})
	src.cfg.Commands["ban"] = moderation.CommandPolicy{Enabled: false}

	e.Invalidate()
	if v := e.Evaluate("ban", CallerContext{RoleIDs: []string{"staff-role"}}); v.Allowed {
		t.Errorf("Invalidate should make the config write visible, got %+v", v)
	}
}

func TestStaffScenarioEndToEnd(t *testing.T) {
	// ban: enabled, non-public, no whitelist/blacklist; caller holds a
	// staff role.
	e := newTestEngine(&fakeSource{cfg: testConfig()})

	v := e.Evaluate("ban", CallerContext{RoleIDs: []string{"other", "staff-role"}})
	if !v.Allowed || v.Reason != ReasonStaff {
		t.Errorf("Evaluate = %+v, want {true %q}", v, ReasonStaff)
	}
}

func TestConcurrentEvaluate(t *testing.T) {
	src := &fakeSource{cfg: testConfig()}
	e := newTestEngine(src)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 200; j++ {
				e.Evaluate("ban", CallerContext{RoleIDs: []string{"staff-role"}})
				if j%50 == 0 {
					e.Invalidate()
				}
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
