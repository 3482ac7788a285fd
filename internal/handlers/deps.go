package handlers

import (
	"log/slog"

	"github.com/ledgerlink/ledgerlink-backend/internal/middleware"
	"github.com/ledgerlink/ledgerlink-backend/internal/response"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	Auth            *middleware.Middleware
	LinkSvc         LinkService
	InstitutionSvc  InstitutionService
	AccountSvc      AccountService
	UserSvc         UserService
	AdminSvc        AdminService
}
