package reset

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type accounts struct {
	users     map[string]*models.User
	roles     map[uuid.UUID][]models.UserRole
	hashes    map[uuid.UUID]string
	updateErr error
}

func (a *accounts) CreateWithRole(context.Context, *models.User, models.Role, *uuid.UUID) (*models.User, error) {
	return nil, nil
}
func (a *accounts) GetByID(context.Context, uuid.UUID) (*models.User, error) { return nil, nil }

func (a *accounts) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return a.users[strings.ToLower(email)], nil
}

func (a *accounts) UpdatePasswordHash(_ context.Context, userID uuid.UUID, hash string) error {
	if a.updateErr != nil {
		return a.updateErr
	}
	a.hashes[userID] = hash
	return nil
}

func (a *accounts) ListByUser(_ context.Context, userID uuid.UUID) ([]models.UserRole, error) {
	return a.roles[userID], nil
}

func (a *accounts) add(email string, roles ...models.Role) *models.User {
	u := &models.User{ID: uuid.New(), Email: email}
	a.users[email] = u
	for _, r := range roles {
		a.roles[u.ID] = append(a.roles[u.ID], models.UserRole{UserID: u.ID, Role: r})
	}
	return u
}

type auditLog struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (l *auditLog) Record(_ context.Context, e *models.AuditLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, *e)
	return nil
}

func newService() (*Service, *accounts, *auditLog) {
	acc := &accounts{
		users:  make(map[string]*models.User),
		roles:  make(map[uuid.UUID][]models.UserRole),
		hashes: make(map[uuid.UUID]string),
	}
	audit := &auditLog{}
	svc := NewService(acc, acc, audit, zap.NewNop())
	svc.cost = bcrypt.MinCost
	return svc, acc, audit
}

func TestAuthenticatedReset(t *testing.T) {
	svc, acc, audit := newService()
	ctx := context.Background()
	admin := acc.add("root@deliverypro.test", models.RoleAdminMaster)
	target := acc.add("driver@shop.test", models.RoleDriver)

	require.NoError(t, svc.AuthenticatedReset(ctx, admin.ID, "driver@shop.test", "n3w-passw0rd"))

	hash := acc.hashes[target.ID]
	require.NotEmpty(t, hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("n3w-passw0rd")))

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "password.reset", audit.entries[0].Action)
	require.NotNil(t, audit.entries[0].ActorID)
	assert.Equal(t, admin.ID, *audit.entries[0].ActorID)
}

func TestAuthenticatedResetErrors(t *testing.T) {
	svc, acc, _ := newService()
	ctx := context.Background()
	admin := acc.add("root@deliverypro.test", models.RoleAdminMaster)
	company := acc.add("owner@shop.test", models.RoleCompanyAdmin)

	tests := []struct {
		name     string
		caller   uuid.UUID
		email    string
		password string
		want     error
	}{
		{"caller not admin", company.ID, "root@deliverypro.test", "secret123", ErrCallerNotAdmin},
		{"missing email", admin.ID, "", "secret123", ErrInputRequired},
		{"missing password", admin.ID, "owner@shop.test", "", ErrInputRequired},
		{"unknown user", admin.ID, "ghost@shop.test", "secret123", ErrUserNotFound},
		{"password too long", admin.ID, "owner@shop.test", strings.Repeat("x", 73), ErrPasswordRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.AuthenticatedReset(ctx, tt.caller, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, acc.hashes)
}

func TestEmergencyResetChecksTarget(t *testing.T) {
	svc, acc, audit := newService()
	ctx := context.Background()
	admin := acc.add("root@deliverypro.test", models.RoleAdminMaster)
	acc.add("client@mail.test", models.RoleClient)
	acc.add("orphan@mail.test")

	assert.ErrorIs(t, svc.EmergencyReset(ctx, "client@mail.test", "secret123"), ErrTargetNotAdmin)
	assert.ErrorIs(t, svc.EmergencyReset(ctx, "orphan@mail.test", "secret123"), ErrProfileNotFound)
	assert.ErrorIs(t, svc.EmergencyReset(ctx, "ghost@mail.test", "secret123"), ErrUserNotFound)
	assert.ErrorIs(t, svc.EmergencyReset(ctx, "", ""), ErrInputRequired)
	assert.Empty(t, acc.hashes)

	require.NoError(t, svc.EmergencyReset(ctx, "root@deliverypro.test", "recovered!"))
	assert.NotEmpty(t, acc.hashes[admin.ID])
	require.Len(t, audit.entries, 1)
	assert.Equal(t, "password.emergency_reset", audit.entries[0].Action)
	assert.Nil(t, audit.entries[0].ActorID)
}

func TestStoreFailureIsWrapped(t *testing.T) {
	svc, acc, audit := newService()
	acc.updateErr = errors.New("connection reset by peer")
	admin := acc.add("root@deliverypro.test", models.RoleAdminMaster)

	err := svc.AuthenticatedReset(context.Background(), admin.ID, "root@deliverypro.test", "secret123")
	assert.ErrorIs(t, err, ErrStore)
	assert.ErrorIs(t, err, acc.updateErr)
	assert.Empty(t, audit.entries)
}
