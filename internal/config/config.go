package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ledgerlink/ledgerlink-backend/internal/dto"
)

type Config struct {
	ProjectID                 string
	Port                      string
	LogLevel                  string
	PlaidClientID             string
	PlaidSecret               string
	PlaidEnvironment          dto.PlaidEnvironment
	PlaidClientName           string
	PlaidCountryCodes         []string
	PlaidLanguage             string
	PlaidProducts             []string
	EncryptionKey             string
	MaxInstitutionsPerUser    int
	MaxAccountsPerInstitution int
	EnableActualDefault       bool
}

func New() *Config {
	return &Config{
		ProjectID:                 os.Getenv("PROJECTID"),
		Port:                      getEnvDefault("PORT", "8080"),
		LogLevel:                  os.Getenv("LOGLEVEL"),
		PlaidClientID:             os.Getenv("PLAIDCLIENTID"),
		PlaidSecret:               os.Getenv("PLAIDSECRET"),
		PlaidEnvironment:          getPlaidEnvironment(os.Getenv("PLAIDENVIRONMENT")),
		PlaidClientName:           os.Getenv("PLAID_CLIENT_NAME"),
		PlaidCountryCodes:         splitList(getEnvDefault("PLAID_COUNTRY_CODES", "US")),
		PlaidLanguage:             getEnvDefault("PLAID_LANGUAGE", "en"),
		PlaidProducts:             splitList(os.Getenv("PLAID_PRODUCTS")),
		EncryptionKey:             os.Getenv("PLAID_ENCRYPTION_KEY"),
		MaxInstitutionsPerUser:    getEnvInt("MAX_INSTITUTIONS_PER_USER", 2),
		MaxAccountsPerInstitution: getEnvInt("MAX_ACCOUNTS_PER_INSTITUTION", 1),
		EnableActualDefault:       strings.EqualFold(os.Getenv("ENABLE_ACTUAL"), "true"),
	}
}

// Validate enforces the fail-closed startup posture: the process must not run
// with a missing or wrong-length token encryption key.
func (c *Config) Validate() error {
	if len(c.EncryptionKey) != 32 {
		return fmt.Errorf("PLAID_ENCRYPTION_KEY missing or invalid (needs 32 bytes, got %d)", len(c.EncryptionKey))
	}
	if c.PlaidClientName == "" || len(c.PlaidCountryCodes) == 0 || c.PlaidLanguage == "" || len(c.PlaidProducts) == 0 {
		return fmt.Errorf("missing required Plaid link configuration: PLAID_CLIENT_NAME, PLAID_COUNTRY_CODES, PLAID_LANGUAGE, PLAID_PRODUCTS")
	}
	if c.MaxInstitutionsPerUser < 1 || c.MaxAccountsPerInstitution < 1 {
		return fmt.Errorf("linking limits must be at least 1")
	}
	return nil
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v == 0 {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getPlaidEnvironment(env string) dto.PlaidEnvironment {
	switch env {
	case "sandbox":
		return dto.PlaidSandbox
	case "development":
		return dto.PlaidDevelopment
	default: // "production"
		return dto.PlaidProduction
	}
}
