package services

import (
	"context"

	"github.com/ledgerlink/ledgerlink-backend/internal/dto"
	"github.com/ledgerlink/ledgerlink-backend/internal/models"
	"github.com/ledgerlink/ledgerlink-backend/pkg/logger"
)

type userADStore interface {
	List(ctx context.Context, q dto.UserListQuery) ([]*models.User, int, error)
	SetActive(ctx context.Context, id string, active *bool) (*models.User, error)
	CountAll(ctx context.Context) (int, error)
}

type institutionADStore interface {
	CountAll(ctx context.Context) (int, error)
}

type accountADStore interface {
	CountAll(ctx context.Context) (int, error)
}

type adminService struct {
	users        userADStore
	institutions institutionADStore
	accounts     accountADStore
	caps         LinkCaps
}

func NewAdminService(users userADStore, institutions institutionADStore, accounts accountADStore, caps LinkCaps) *adminService {
	return &adminService{
		users:        users,
		institutions: institutions,
		accounts:     accounts,
		caps:         caps,
	}
}

// ListUsers clamps the paging parameters and runs the filtered directory
// listing. Page size is bounded to [1,100] with a default of 25.
func (s *adminService) ListUsers(ctx context.Context, q dto.UserListQuery) (dto.UserListResult, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 25
	}
	if q.PageSize > 100 {
		q.PageSize = 100
	}
	if q.Active == "" {
		q.Active = "all"
	}
	if q.Role == "" {
		q.Role = "all"
	}

	users, total, err := s.users.List(ctx, q)
	if err != nil {
		return dto.UserListResult{}, err
	}

	totalPages := (total + q.PageSize - 1) / q.PageSize
	if totalPages < 1 {
		totalPages = 1
	}
	return dto.UserListResult{
		Users: users,
		Meta: dto.UserListMeta{
			Page:         q.Page,
			PageSize:     q.PageSize,
			Total:        total,
			TotalPages:   totalPages,
			Search:       q.Search,
			ActiveFilter: q.Active,
			RoleFilter:   q.Role,
		},
	}, nil
}

// SetActive sets or toggles a user's activation flag. Deactivation takes
// effect on the user's next request; their identity session stays valid but
// the auth guard rejects them.
func (s *adminService) SetActive(ctx context.Context, userID string, active *bool) (*models.User, error) {
	user, err := s.users.SetActive(ctx, userID, active)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info("user activation changed", "target_user_id", user.ID, "active", user.Active)
	return user, nil
}

func (s *adminService) Stats(ctx context.Context) (dto.AdminStats, error) {
	users, err := s.users.CountAll(ctx)
	if err != nil {
		return dto.AdminStats{}, err
	}
	institutions, err := s.institutions.CountAll(ctx)
	if err != nil {
		return dto.AdminStats{}, err
	}
	accounts, err := s.accounts.CountAll(ctx)
	if err != nil {
		return dto.AdminStats{}, err
	}

	return dto.AdminStats{
		TotalUsers:                users,
		TotalInstitutions:         institutions,
		TotalAccounts:             accounts,
		MaxInstitutionsPerUser:    s.caps.MaxInstitutionsPerUser,
		MaxAccountsPerInstitution: s.caps.MaxAccountsPerInstitution,
	}, nil
}
