package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"covenant/contexts/identity-access/authorization-service/domain/entities"
	"covenant/contexts/identity-access/authorization-service/ports"
	"covenant/internal/shared/audit"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) GrantRole(ctx context.Context, assignment entities.RoleAssignment, entry audit.Entry) (ports.GrantResult, error) {
	var result ports.GrantResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := modelFromAssignment(assignment)
		if err := tx.Create(&row).Error; err != nil {
			if !isUniqueViolation(err) {
				return err
			}
			// The partial unique index only admits one active row per
			// (user, role); surface that row instead of failing.
			var existing roleAssignmentModel
			lookupErr := tx.
				Where("user_id = ? AND role_id = ? AND revoked_at IS NULL", assignment.UserID, assignment.RoleID).
				Take(&existing).
				Error
			if lookupErr != nil {
				return lookupErr
			}
			result = ports.GrantResult{Assignment: existing.toEntity(), Created: false}
			return nil
		}
		if err := audit.AppendTx(tx, entry); err != nil {
			return err
		}
		result = ports.GrantResult{Assignment: assignment, Created: true}
		return nil
	})
	if err != nil {
		return ports.GrantResult{}, err
	}
	return result, nil
}

func (r *Repository) RevokeRole(ctx context.Context, userID, roleID string, at time.Time, entry audit.Entry) (bool, error) {
	var revoked bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&roleAssignmentModel{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND role_id = ? AND revoked_at IS NULL", userID, roleID).
			Update("revoked_at", at.UTC())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		revoked = true
		return audit.AppendTx(tx, entry)
	})
	if err != nil {
		return false, err
	}
	return revoked, nil
}

func (r *Repository) ListUserRoles(ctx context.Context, userID string) ([]entities.RoleAssignment, error) {
	var rows []roleAssignmentModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Order("assigned_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	assignments := make([]entities.RoleAssignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, row.toEntity())
	}
	return assignments, nil
}

func (r *Repository) HasAnyRole(ctx context.Context, userID string, roles ...string) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&roleAssignmentModel{}).
		Where("user_id = ? AND role_id IN ? AND revoked_at IS NULL", userID, roles).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) CountActiveByRole(ctx context.Context, roleID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&roleAssignmentModel{}).
		Where("role_id = ? AND revoked_at IS NULL", roleID).
		Count(&count).
		Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

type roleAssignmentModel struct {
	AssignmentID string     `gorm:"column:assignment_id;primaryKey"`
	UserID       string     `gorm:"column:user_id"`
	RoleID       string     `gorm:"column:role_id"`
	AssignedBy   string     `gorm:"column:assigned_by"`
	Reason       string     `gorm:"column:reason"`
	AssignedAt   time.Time  `gorm:"column:assigned_at"`
	RevokedAt    *time.Time `gorm:"column:revoked_at"`
}

func (roleAssignmentModel) TableName() string {
	return "role_assignments"
}

func modelFromAssignment(assignment entities.RoleAssignment) roleAssignmentModel {
	return roleAssignmentModel{
		AssignmentID: assignment.AssignmentID,
		UserID:       assignment.UserID,
		RoleID:       assignment.RoleID,
		AssignedBy:   assignment.AssignedBy,
		Reason:       assignment.Reason,
		AssignedAt:   assignment.AssignedAt.UTC(),
		RevokedAt:    assignment.RevokedAt,
	}
}

func (m roleAssignmentModel) toEntity() entities.RoleAssignment {
	return entities.RoleAssignment{
		AssignmentID: m.AssignmentID,
		UserID:       m.UserID,
		RoleID:       m.RoleID,
		AssignedBy:   m.AssignedBy,
		Reason:       m.Reason,
		AssignedAt:   m.AssignedAt.UTC(),
		RevokedAt:    m.RevokedAt,
	}
}
