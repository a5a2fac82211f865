package storage

import (
	"slices"

	"server-warden/internal/moderation"
)

// PermissionConfig returns the global permission configuration. Satisfies
// permission.ConfigSource.
func (s *Storage) PermissionConfig() (moderation.PermissionConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateRecord()
	if err != nil {
		return moderation.PermissionConfig{}, err
	}
	return record.Permissions, nil
}

// EnsureCommandPolicy creates a policy for name if none exists yet. Commands
// are discovered implicitly at registration; a fresh policy starts from the
// given default. Existing policies are never overwritten.
func (s *Storage) EnsureCommandPolicy(name string, def moderation.CommandPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateRecord()
	if err != nil {
		return err
	}
	if _, ok := record.Permissions.Commands[name]; ok {
		return nil
	}
	record.Permissions.Commands[name] = def
	s.put(record)
	return nil
}

// CommandPolicy returns the policy for name.
func (s *Storage) CommandPolicy(name string) (moderation.CommandPolicy, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateRecord()
	if err != nil {
		return moderation.CommandPolicy{}, false, err
	}
	p, ok := record.Permissions.Commands[name]
	return p, ok, nil
}

// SetCommandPolicy replaces the policy for name.
func (s *Storage) SetCommandPolicy(name string, p moderation.CommandPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateRecord()
	if err != nil {
		return err
	}
	record.Permissions.Commands[name] = p
	s.put(record)
	return nil
}

// SetCommandEnabled toggles a command. Disabling never deletes the policy.
func (s *Storage) SetCommandEnabled(name string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateRecord()
	if err != nil {
		return err
	}
	p, ok := record.Permissions.Commands[name]
	if !ok {
		p = moderation.DefaultPolicy()
	}
	p.Enabled = enabled
	record.Permissions.Commands[name] = p
	s.put(record)
	return nil
}

// AddStaffRole grants roleID blanket access to non-public commands.
func (s *Storage) AddStaffRole(roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateRecord()
	if err != nil {
		return err
	}
	if slices.Contains(record.Permissions.StaffRoles, roleID) {
		return nil
	}
	record.Permissions.StaffRoles = append(record.Permissions.StaffRoles, roleID)
	s.put(record)
	return nil
}

// RemoveStaffRole revokes a staff role.
func (s *Storage) RemoveStaffRole(roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateRecord()
	if err != nil {
		return err
	}
	record.Permissions.StaffRoles = slices.DeleteFunc(record.Permissions.StaffRoles, func(id string) bool {
		return id == roleID
	})
	s.put(record)
	return nil
}

// AddCommandRole adds roleID to a command's whitelist or blacklist.
func (s *Storage) AddCommandRole(name, roleID string, blacklist bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateRecord()
	if err != nil {
		return err
	}
	p, ok := record.Permissions.Commands[name]
	if !ok {
		p = moderation.DefaultPolicy()
	}
	list := &p.Whitelist
	if blacklist {
		list = &p.Blacklist
	}
	if !slices.Contains(*list, roleID) {
		*list = append(*list, roleID)
	}
	record.Permissions.Commands[name] = p
	s.put(record)
	return nil
}

// RemoveCommandRole removes roleID from a command's whitelist or blacklist.
func (s *Storage) RemoveCommandRole(name, roleID string, blacklist bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateRecord()
	if err != nil {
		return err
	}
	p, ok := record.Permissions.Commands[name]
	if !ok {
		return nil
	}
	drop := func(id string) bool { return id == roleID }
	if blacklist {
		p.Blacklist = slices.DeleteFunc(p.Blacklist, drop)
	} else {
		p.Whitelist = slices.DeleteFunc(p.Whitelist, drop)
	}
	record.Permissions.Commands[name] = p
	s.put(record)
	return nil
}
