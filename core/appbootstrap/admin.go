package appbootstrap

import (
	"context"
	"os"
	"strings"

	"incidentdesk/config"
	"incidentdesk/core/auth"
	"incidentdesk/core/store"
	"incidentdesk/core/utils"
)

const defaultAdminUsername = "admin"

// EnsureDefaultAdmin creates the admin account on first start so a fresh
// install is usable. The password comes from INCIDENTDESK_ADMIN_PASSWORD or
// is generated and logged once.
func EnsureDefaultAdmin(ctx context.Context, users store.UsersStore, cfg *config.AppConfig, logger *utils.Logger) error {
	existing, err := users.FindByUsername(ctx, defaultAdminUsername)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	password := strings.TrimSpace(os.Getenv("INCIDENTDESK_ADMIN_PASSWORD"))
	generated := false
	if password == "" {
		password, err = utils.RandString(16)
		if err != nil {
			return err
		}
		generated = true
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &store.User{
		Username:     defaultAdminUsername,
		PasswordHash: hash,
		Role:         store.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}
	if generated {
		logger.Printf("created default admin with password %s (change it after first login)", password)
	} else {
		logger.Printf("created default admin account")
	}
	return nil
}
