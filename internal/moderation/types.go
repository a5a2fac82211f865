// Package moderation holds the persisted domain types shared by the storage
// layer, the case ledger and the permission engine.
package moderation

import "time"

// DefaultReason is recorded when a moderator gives no reason.
const DefaultReason = "No reason provided"

// ActionType classifies a moderation action. The set is closed; channel-scoped
// pseudo-types (lock, slowmode_*) carry no subject user.
type ActionType string

const (
	ActionWarn        ActionType = "warn"
	ActionMute        ActionType = "mute"
	ActionUnmute      ActionType = "unmute"
	ActionBan         ActionType = "ban"
	ActionUnban       ActionType = "unban"
	ActionKick        ActionType = "kick"
	ActionRolePersist ActionType = "role_persist"
	ActionLock        ActionType = "lock"
	ActionUnlock      ActionType = "unlock"
	ActionSlowmodeOn  ActionType = "slowmode_enable"
	ActionSlowmodeOff ActionType = "slowmode_disable"

	// ActionTotal is not a loggable type; statistics use it as the
	// aggregate row across all action types.
	ActionTotal ActionType = "total"
)

var actionLabels = map[ActionType]string{
	ActionWarn:        "⚠️ Warn",
	ActionMute:        "🔇 Mute",
	ActionUnmute:      "🔊 Unmute",
	ActionBan:         "🔨 Ban",
	ActionUnban:       "🕊️ Unban",
	ActionKick:        "👢 Kick",
	ActionRolePersist: "📌 Role Persist",
	ActionLock:        "🔒 Lock",
	ActionUnlock:      "🔓 Unlock",
	ActionSlowmodeOn:  "🐌 Slowmode On",
	ActionSlowmodeOff: "🏎️ Slowmode Off",
	ActionTotal:       "Σ Total",
}

// Valid reports whether t is a loggable action type.
func (t ActionType) Valid() bool {
	_, ok := actionLabels[t]
	return ok && t != ActionTotal
}

// Label returns the display label for t, or the raw value if unknown.
func (t ActionType) Label() string {
	if label, ok := actionLabels[t]; ok {
		return label
	}
	return string(t)
}

// ChannelScoped reports whether t targets a channel rather than a user.
func (t ActionType) ChannelScoped() bool {
	switch t {
	case ActionLock, ActionUnlock, ActionSlowmodeOn, ActionSlowmodeOff:
		return true
	}
	return false
}

// Action is one case record. Records are append-only; only Reason is ever
// mutated after creation.
type Action struct {
	CaseID      string     `json:"case_id"`
	Type        ActionType `json:"type"`
	UserID      string     `json:"user_id,omitempty"` // empty for channel-scoped actions
	ModeratorID string     `json:"moderator_id"`
	Reason      string     `json:"reason"`
	Duration    string     `json:"duration,omitempty"` // human token, only for mute/slowmode
	Timestamp   time.Time  `json:"timestamp"`
}

// Warning mirrors a warn case in a separately-tracked store so thresholds can
// be counted and individual warnings deleted without touching the case record.
// CaseID is a non-owning reference into the case store.
type Warning struct {
	CaseID      string    `json:"case_id"`
	UserID      string    `json:"user_id"`
	ModeratorID string    `json:"moderator_id"`
	Reason      string    `json:"reason"`
	Timestamp   time.Time `json:"timestamp"`
}

// CommandPolicy gates one command. Role IDs in the lists are not validated
// against the live role set at write time; stale entries are filtered only
// when rendered.
type CommandPolicy struct {
	Enabled   bool     `json:"enabled"`
	Public    bool     `json:"public"`
	OwnerOnly bool     `json:"owner_only"` // staff roles are not sufficient; owner or whitelist only
	Whitelist []string `json:"whitelist,omitempty"`
	Blacklist []string `json:"blacklist,omitempty"`
}

// DefaultPolicy is what a command gets when first discovered.
func DefaultPolicy() CommandPolicy {
	return CommandPolicy{Enabled: true}
}

// PermissionConfig is the sparse configuration the permission engine compiles
// from. One global record.
type PermissionConfig struct {
	StaffRoles []string                 `json:"staff_roles,omitempty"`
	Commands   map[string]CommandPolicy `json:"commands,omitempty"`
}
