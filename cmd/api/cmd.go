package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/ledgerlink/ledgerlink-backend/internal/bootstrap"
	"github.com/ledgerlink/ledgerlink-backend/internal/config"
	"github.com/ledgerlink/ledgerlink-backend/internal/crypto"
	"github.com/ledgerlink/ledgerlink-backend/internal/handlers"
	"github.com/ledgerlink/ledgerlink-backend/internal/middleware"
	"github.com/ledgerlink/ledgerlink-backend/internal/response"
	"github.com/ledgerlink/ledgerlink-backend/internal/router"
	"github.com/ledgerlink/ledgerlink-backend/internal/services"
	"github.com/ledgerlink/ledgerlink-backend/internal/store"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// bootstrap
	_ = godotenv.Load()
	cfg := config.New()
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	// fail closed: no process without a valid token encryption key
	exitOnError("invalid configuration", cfg.Validate(), bs.Log)
	cipher, err := crypto.NewTokenCipher(cfg.EncryptionKey)
	exitOnError("token cipher init failed", err, bs.Log)

	caps := services.LinkCaps{
		MaxInstitutionsPerUser:    cfg.MaxInstitutionsPerUser,
		MaxAccountsPerInstitution: cfg.MaxAccountsPerInstitution,
	}

	// stores
	ustore := store.NewUserStore(bs.Firestore)
	istore := store.NewInstitutionStore(bs.Firestore)
	astore := store.NewAccountStore(bs.Firestore)
	itstore := store.NewItemStore(bs.Firestore)

	// services
	userv := services.NewUserService(ustore, istore, astore, cfg.EnableActualDefault)
	iserv := services.NewInstitutionService(istore, astore)
	aserv := services.NewAccountService(astore, iserv, caps)
	lserv := services.NewLinkService(bs.PlaidAdapter, cipher, itstore, iserv, aserv, userv, cfg.PlaidProducts, caps)
	adserv := services.NewAdminService(ustore, istore, astore, caps)

	// response handler
	rh := response.New(bs.Log)

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.Auth = middleware.NewMiddleware(bs.Firebase, userv)
	deps.LinkSvc = lserv
	deps.InstitutionSvc = iserv
	deps.AccountSvc = aserv
	deps.UserSvc = userv
	deps.AdminSvc = adserv

	// router
	r := router.NewRouter(deps)
	err = http.ListenAndServe(":"+cfg.Port, r)
	exitOnError("server start failed", err, bs.Log)
}
