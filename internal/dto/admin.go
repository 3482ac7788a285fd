package dto

import "github.com/ledgerlink/ledgerlink-backend/internal/models"

// UserListQuery holds the validated admin directory listing parameters.
type UserListQuery struct {
	Page     int
	PageSize int
	Search   string // case-insensitive email substring
	Active   string // all | active | inactive
	Role     string // all | admin | user
}

type UserListMeta struct {
	Page         int    `json:"page"`
	PageSize     int    `json:"pageSize"`
	Total        int    `json:"total"`
	TotalPages   int    `json:"totalPages"`
	Search       string `json:"search"`
	ActiveFilter string `json:"activeFilter"`
	RoleFilter   string `json:"roleFilter"`
}

type UserListResult struct {
	Users []*models.User `json:"users"`
	Meta  UserListMeta   `json:"meta"`
}

// AdminStats is the aggregate view on the admin dashboard.
type AdminStats struct {
	TotalUsers                int `json:"totalUsers"`
	TotalInstitutions         int `json:"totalInstitutions"`
	TotalAccounts             int `json:"totalAccounts"`
	MaxInstitutionsPerUser    int `json:"maxInstitutionsPerUser"`
	MaxAccountsPerInstitution int `json:"maxAccountsPerInstitution"`
}
