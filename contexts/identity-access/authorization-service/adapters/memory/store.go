package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"covenant/contexts/identity-access/authorization-service/domain/entities"
	"covenant/contexts/identity-access/authorization-service/ports"
	"covenant/internal/shared/audit"
)

// Store keeps role assignments in memory. It also serves as Clock and
// IDGenerator for the in-memory module wiring.
type Store struct {
	mu          sync.RWMutex
	assignments map[string]entities.RoleAssignment
	auditLog    *audit.MemoryLog
}

var _ ports.Repository = (*Store)(nil)

func NewStore(auditLog *audit.MemoryLog) *Store {
	if auditLog == nil {
		auditLog = audit.NewMemoryLog()
	}
	return &Store{
		assignments: make(map[string]entities.RoleAssignment),
		auditLog:    auditLog,
	}
}

func (s *Store) AuditLog() *audit.MemoryLog {
	return s.auditLog
}

func (s *Store) GrantRole(ctx context.Context, assignment entities.RoleAssignment, entry audit.Entry) (ports.GrantResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.activeLocked(assignment.UserID, assignment.RoleID); ok {
		return ports.GrantResult{Assignment: existing, Created: false}, nil
	}
	s.assignments[assignment.AssignmentID] = assignment
	s.auditLog.Append(entry)
	return ports.GrantResult{Assignment: assignment, Created: true}, nil
}

func (s *Store) RevokeRole(ctx context.Context, userID, roleID string, at time.Time, entry audit.Entry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.activeLocked(userID, roleID)
	if !ok {
		return false, nil
	}
	revokedAt := at.UTC()
	existing.RevokedAt = &revokedAt
	s.assignments[existing.AssignmentID] = existing
	s.auditLog.Append(entry)
	return true, nil
}

func (s *Store) ListUserRoles(ctx context.Context, userID string) ([]entities.RoleAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roles := make([]entities.RoleAssignment, 0)
	for _, assignment := range s.assignments {
		if assignment.UserID == userID && assignment.IsActive() {
			roles = append(roles, assignment)
		}
	}
	sort.Slice(roles, func(i, j int) bool {
		return roles[i].AssignedAt.Before(roles[j].AssignedAt)
	})
	return roles, nil
}

func (s *Store) HasAnyRole(ctx context.Context, userID string, roles ...string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, role := range roles {
		if _, ok := s.activeLocked(userID, role); ok {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CountActiveByRole(ctx context.Context, roleID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, assignment := range s.assignments {
		if assignment.RoleID == roleID && assignment.IsActive() {
			count++
		}
	}
	return count, nil
}

func (s *Store) activeLocked(userID, roleID string) (entities.RoleAssignment, bool) {
	for _, assignment := range s.assignments {
		if assignment.UserID == userID && assignment.RoleID == roleID && assignment.IsActive() {
			return assignment, true
		}
	}
	return entities.RoleAssignment{}, false
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(ctx context.Context) (string, error) {
	return uuid.NewString(), nil
}
