package services

import (
	"context"

	"github.com/ledgerlink/ledgerlink-backend/internal/dto"
	"github.com/ledgerlink/ledgerlink-backend/internal/models"
	"github.com/ledgerlink/ledgerlink-backend/pkg/logger"
)

// --- Dependencies (minimal interfaces scoped to this service) ---

type userUSStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindOrCreateByEmail(ctx context.Context, email string) (*models.User, error)
	AdminExists(ctx context.Context) (bool, error)
	GetSettings(ctx context.Context, userID string) (*models.UserSettings, error)
	UpdateSettings(ctx context.Context, userID string, patch dto.SettingsPatch) (*models.UserSettings, error)
}

type institutionUSStore interface {
	CountForUser(ctx context.Context, userID string) (int, error)
}

type accountUSStore interface {
	CountForInstitution(ctx context.Context, userID, institutionID string) (int, error)
}

type userService struct {
	store               userUSStore
	institutions        institutionUSStore
	accounts            accountUSStore
	enableActualDefault bool
}

func NewUserService(store userUSStore, institutions institutionUSStore, accounts accountUSStore, enableActualDefault bool) *userService {
	return &userService{
		store:               store,
		institutions:        institutions,
		accounts:            accounts,
		enableActualDefault: enableActualDefault,
	}
}

func (s *userService) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.store.FindByID(ctx, id)
}

func (s *userService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.store.FindByEmail(ctx, email)
}

// FindOrCreateByEmail provisions the local user record on first login. The
// first user ever created becomes the administrator.
func (s *userService) FindOrCreateByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.store.FindOrCreateByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Debug("user resolved", "user_id", user.ID, "is_admin", user.IsAdmin)
	return user, nil
}

func (s *userService) AdminExists(ctx context.Context) (bool, error) {
	return s.store.AdminExists(ctx)
}

// CanAddInstitution reports whether the user is below the institution cap.
// Pure capacity check, no mutation.
func (s *userService) CanAddInstitution(ctx context.Context, userID string, max int) (bool, error) {
	count, err := s.institutions.CountForUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return count < max, nil
}

// CanAddAccountToInstitution reports whether the institution is below the
// per-institution account cap.
func (s *userService) CanAddAccountToInstitution(ctx context.Context, userID, institutionID string, max int) (bool, error) {
	count, err := s.accounts.CountForInstitution(ctx, userID, institutionID)
	if err != nil {
		return false, err
	}
	return count < max, nil
}

// GetSettings resolves stored preference flags against the configured
// defaults. enableActual falls back to the environment default, the export
// flag to false.
func (s *userService) GetSettings(ctx context.Context, userID string) (dto.ResolvedSettings, error) {
	stored, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		return dto.ResolvedSettings{}, err
	}
	return s.resolve(stored), nil
}

func (s *userService) UpdateSettings(ctx context.Context, userID string, patch dto.SettingsPatch) (dto.ResolvedSettings, error) {
	saved, err := s.store.UpdateSettings(ctx, userID, patch)
	if err != nil {
		return dto.ResolvedSettings{}, err
	}

	log := logger.FromContext(ctx)
	log.Info("user settings updated", "user_id", userID)
	return s.resolve(saved), nil
}

func (s *userService) resolve(stored *models.UserSettings) dto.ResolvedSettings {
	resolved := dto.ResolvedSettings{
		EnableActual:      s.enableActualDefault,
		EnableEmailExport: false,
	}
	if stored == nil {
		return resolved
	}
	if stored.EnableActual != nil {
		resolved.EnableActual = *stored.EnableActual
	}
	if stored.EnableEmailExport != nil {
		resolved.EnableEmailExport = *stored.EnableEmailExport
	}
	return resolved
}
