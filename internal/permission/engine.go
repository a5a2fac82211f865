// Package permission decides whether a caller may invoke a command. The
// sparse configuration is compiled into set-lookup form and cached with a
// fixed TTL; evaluation is a pure function over the cached snapshot.
package permission

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"server-warden/internal/moderation"
)

// DefaultTTL is how long a compiled snapshot is served before a rebuild.
// Configuration writes become visible only after expiry; that bounded
// staleness window is deliberate.
const DefaultTTL = 60 * time.Second

// ConfigSource supplies the configuration the engine compiles from.
// *storage.Storage satisfies it.
type ConfigSource interface {
	PermissionConfig() (moderation.PermissionConfig, error)
}

// CallerContext describes the caller of a command.
type CallerContext struct {
	RoleIDs []string
	IsOwner bool
}

// Verdict is the evaluation result. Reason strings are stable: callers
// substring-match "disabled", "blacklisted" and "staff" to pick user-facing
// messages, so changing them is a breaking change.
type Verdict struct {
	Allowed bool
	Reason  string
}

// Reason values. See Verdict.
const (
	ReasonNotRegistered = "Command not registered"
	ReasonOwnerBypass   = "Owner bypass"
	ReasonDisabled      = "Command disabled"
	ReasonPublic        = "Public command"
	ReasonBlacklisted   = "Role is blacklisted"
	ReasonWhitelisted   = "Whitelisted role"
	ReasonStaff         = "Staff role"
	ReasonStaffOnly     = "Staff only command"
	ReasonNoPermission  = "No permission"
	ReasonInternalError = "Internal error"
)

type compiledPolicy struct {
	enabled   bool
	public    bool
	ownerOnly bool
	whitelist map[string]struct{}
	blacklist map[string]struct{}
}

type compiled struct {
	byCommand  map[string]compiledPolicy
	staffRoles map[string]struct{}
	builtAt    time.Time
}

// Engine evaluates (command, caller) pairs against the compiled snapshot.
// Safe for concurrent use; a rebuild in progress never blocks readers of the
// previous snapshot.
type Engine struct {
	source ConfigSource
	ttl    time.Duration
	log    zerolog.Logger
	now    func() time.Time

	snapshot  atomic.Pointer[compiled]
	rebuildMu sync.Mutex
}

// NewEngine creates an Engine over source. ttl <= 0 uses DefaultTTL.
func NewEngine(source ConfigSource, ttl time.Duration, log zerolog.Logger) *Engine {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Engine{
		source: source,
		ttl:    ttl,
		log:    log,
		now:    time.Now,
	}
}

// Evaluate applies the fixed rule precedence and returns a verdict. It never
// returns an error: any failure to read configuration denies with
// ReasonInternalError, so permission checks fail closed.
func (e *Engine) Evaluate(commandName string, caller CallerContext) Verdict {
	v := e.evaluate(commandName, caller)
	e.log.Debug().
		Str("command", commandName).
		Bool("allowed", v.Allowed).
		Str("reason", v.Reason).
		Msg("permission verdict")
	return v
}

func (e *Engine) evaluate(commandName string, caller CallerContext) Verdict {
	snap, err := e.current()
	if err != nil {
		e.log.Error().Err(err).Msg("permission config rebuild failed, denying")
		return Verdict{Allowed: false, Reason: ReasonInternalError}
	}

	policy, ok := snap.byCommand[commandName]
	if !ok {
		return Verdict{Allowed: false, Reason: ReasonNotRegistered}
	}

	// Owner bypass wins over everything, including Enabled=false, so an
	// administrator can never lock themselves out.
	if caller.IsOwner {
		return Verdict{Allowed: true, Reason: ReasonOwnerBypass}
	}

	if !policy.enabled {
		return Verdict{Allowed: false, Reason: ReasonDisabled}
	}

	// Owner-only commands ignore staff roles entirely: only the owner
	// (already handled) or an explicit whitelist entry gets through.
	if policy.ownerOnly {
		if anyIn(caller.RoleIDs, policy.blacklist) {
			return Verdict{Allowed: false, Reason: ReasonBlacklisted}
		}
		if anyIn(caller.RoleIDs, policy.whitelist) {
			return Verdict{Allowed: true, Reason: ReasonWhitelisted}
		}
		return Verdict{Allowed: false, Reason: ReasonNoPermission}
	}

	if policy.public {
		return Verdict{Allowed: true, Reason: ReasonPublic}
	}

	// An explicit denial beats any broader grant below.
	if anyIn(caller.RoleIDs, policy.blacklist) {
		return Verdict{Allowed: false, Reason: ReasonBlacklisted}
	}

	if anyIn(caller.RoleIDs, policy.whitelist) {
		return Verdict{Allowed: true, Reason: ReasonWhitelisted}
	}

	if anyIn(caller.RoleIDs, snap.staffRoles) {
		return Verdict{Allowed: true, Reason: ReasonStaff}
	}

	if len(policy.whitelist) == 0 {
		return Verdict{Allowed: false, Reason: ReasonStaffOnly}
	}
	return Verdict{Allowed: false, Reason: ReasonNoPermission}
}

// Invalidate drops the snapshot so the next evaluation rebuilds. Exposed for
// configuration writers that want the change visible before TTL expiry.
func (e *Engine) Invalidate() {
	e.snapshot.Store(nil)
}

// current returns a usable snapshot, rebuilding when none exists or the TTL
// has lapsed. A stale-but-present snapshot is served as-is while another
// goroutine rebuilds; only a cold start blocks.
func (e *Engine) current() (*compiled, error) {
	snap := e.snapshot.Load()
	if snap != nil && e.now().Sub(snap.builtAt) <= e.ttl {
		return snap, nil
	}

	if snap != nil {
		if !e.rebuildMu.TryLock() {
			// Someone else is rebuilding; serve the stale snapshot.
			return snap, nil
		}
	} else {
		e.rebuildMu.Lock()
	}
	defer e.rebuildMu.Unlock()

	// A rebuild may have finished while we waited for the lock.
	if fresh := e.snapshot.Load(); fresh != nil && e.now().Sub(fresh.builtAt) <= e.ttl {
		return fresh, nil
	}

	cfg, err := e.source.PermissionConfig()
	if err != nil {
		return nil, err
	}

	next := compile(cfg, e.now())
	e.snapshot.Store(next)
	return next, nil
}

// compile transforms the sparse configuration into set-lookup form. The
// result is never mutated afterwards; rebuilds replace it wholesale.
func compile(cfg moderation.PermissionConfig, now time.Time) *compiled {
	snap := &compiled{
		byCommand:  make(map[string]compiledPolicy, len(cfg.Commands)),
		staffRoles: toSet(cfg.StaffRoles),
		builtAt:    now,
	}
	for name, p := range cfg.Commands {
		snap.byCommand[name] = compiledPolicy{
			enabled:   p.Enabled,
			public:    p.Public,
			ownerOnly: p.OwnerOnly,
			whitelist: toSet(p.Whitelist),
			blacklist: toSet(p.Blacklist),
		}
	}
	return snap
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func anyIn(roleIDs []string, set map[string]struct{}) bool {
	for _, id := range roleIDs {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}
