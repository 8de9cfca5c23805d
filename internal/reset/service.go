// Package reset implements the two privileged password-reset paths.
//
// AuthenticatedReset is for a signed-in admin_master resetting any account.
// EmergencyReset has no caller at all: it only checks that the account
// being reset is itself an admin_master. That asymmetry is kept on purpose
// so a locked-out platform admin can recover; see DESIGN.md.
package reset

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/lalith-99/deliverypro/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrCallerNotAdmin  = errors.New("caller is not admin_master")
	ErrInputRequired   = errors.New("email and password required")
	ErrUserNotFound    = errors.New("user not found")
	ErrProfileNotFound = errors.New("user has no profile")
	ErrTargetNotAdmin  = errors.New("target is not admin_master")

	// ErrStore marks a failed read or write against the account store. Its
	// message is passed through to the caller.
	ErrStore = errors.New("account store failure")

	// ErrPasswordRejected wraps hashing failures such as a password over
	// bcrypt's 72-byte limit.
	ErrPasswordRejected = errors.New("password rejected")
)

type Service struct {
	users  repository.UserRepository
	roles  repository.RoleRepository
	audit  repository.AuditRepository
	logger *zap.Logger
	cost   int
}

func NewService(users repository.UserRepository, roles repository.RoleRepository, audit repository.AuditRepository, logger *zap.Logger) *Service {
	return &Service{users: users, roles: roles, audit: audit, logger: logger, cost: bcrypt.DefaultCost}
}

func hasRole(roles []models.UserRole, want models.Role) bool {
	for _, r := range roles {
		if r.Role == want {
			return true
		}
	}
	return false
}

// RequireAdmin checks that callerID holds admin_master.
func (s *Service) RequireAdmin(ctx context.Context, callerID uuid.UUID) error {
	roles, err := s.roles.ListByUser(ctx, callerID)
	if err != nil {
		// An unreadable role set is treated as not admin.
		return fmt.Errorf("%w: %w", ErrCallerNotAdmin, err)
	}
	if !hasRole(roles, models.RoleAdminMaster) {
		return ErrCallerNotAdmin
	}
	return nil
}

// AuthenticatedReset sets a new password on any account. The caller must
// pass RequireAdmin.
func (s *Service) AuthenticatedReset(ctx context.Context, callerID uuid.UUID, email, password string) error {
	if err := s.RequireAdmin(ctx, callerID); err != nil {
		return err
	}
	target, err := s.lookup(ctx, email, password)
	if err != nil {
		return err
	}
	if err := s.setPassword(ctx, target, password); err != nil {
		return err
	}

	actor := callerID
	s.record(ctx, &actor, target.ID, "password.reset")
	s.logger.Info("password reset by admin",
		zap.String("caller_id", callerID.String()),
		zap.String("target_id", target.ID.String()),
	)
	return nil
}

// EmergencyReset sets a new password on an admin_master account without
// any caller identity.
func (s *Service) EmergencyReset(ctx context.Context, email, password string) error {
	s.logger.Warn("emergency reset requested", zap.String("email", email))

	target, err := s.lookup(ctx, email, password)
	if err != nil {
		return err
	}

	roles, err := s.roles.ListByUser(ctx, target.ID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProfileNotFound, err)
	}
	if len(roles) == 0 {
		return ErrProfileNotFound
	}
	if !hasRole(roles, models.RoleAdminMaster) {
		s.logger.Warn("emergency reset refused, target is not admin_master", zap.String("email", email))
		return ErrTargetNotAdmin
	}

	if err := s.setPassword(ctx, target, password); err != nil {
		return err
	}
	s.record(ctx, nil, target.ID, "password.emergency_reset")
	s.logger.Info("emergency reset completed", zap.String("target_id", target.ID.String()))
	return nil
}

func (s *Service) lookup(ctx context.Context, email, password string) (*models.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrInputRequired
	}
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("%w: find user: %w", ErrStore, err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *Service) setPassword(ctx context.Context, u *models.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordRejected, err)
	}
	if err := s.users.UpdatePasswordHash(ctx, u.ID, string(hash)); err != nil {
		return fmt.Errorf("%w: update password: %w", ErrStore, err)
	}
	return nil
}

// record writes the audit entry. A failed audit write is logged but does
// not undo the reset.
func (s *Service) record(ctx context.Context, actor *uuid.UUID, targetID uuid.UUID, action string) {
	entity := targetID
	err := s.audit.Record(ctx, &models.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   "user",
		EntityID: &entity,
	})
	if err != nil {
		s.logger.Error("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}
