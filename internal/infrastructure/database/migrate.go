package database

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"medledger/internal/domain/entity"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var ledgerMigrations embed.FS

// PortalModels lists every ORM model of the portal schema, parents first.
func PortalModels() []interface{} {
	return []interface{}{
		&entity.Role{},
		&entity.User{},
		&entity.Doctor{},
		&entity.MedicalRecord{},
		&entity.Appointment{},
		&entity.Insurance{},
		&entity.MedicalCard{},
		&entity.Notification{},
		&entity.AuditLog{},
	}
}

// MigratePortal creates or updates the ORM schema and seeds the fixed roles.
func MigratePortal(db *gorm.DB) error {
	if err := db.AutoMigrate(PortalModels()...); err != nil {
		return fmt.Errorf("auto migrate portal schema: %w", err)
	}

	for _, role := range entity.DefaultRoles() {
		if err := db.Where(entity.Role{ID: role.ID}).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", role.RoleName, err)
		}
	}

	logrus.Info("Portal schema migrated")
	return nil
}

// MigrateLedger applies the embedded SQL migrations of the ledger schema.
func MigrateLedger(databaseURL string) error {
	src, err := iofs.New(ledgerMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, pgx5URL(databaseURL))
	if err != nil {
		return fmt.Errorf("init ledger migrator: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logrus.Warnf("Failed to close ledger migrator: source=%v db=%v", srcErr, dbErr)
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply ledger migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read ledger schema version: %w", err)
	}
	logrus.Infof("Ledger schema at version %d (dirty=%t)", version, dirty)
	return nil
}

// pgx5URL rewrites a postgres:// URL to the scheme registered by the pgx v5 driver.
func pgx5URL(databaseURL string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(databaseURL, prefix) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, prefix)
		}
	}
	return databaseURL
}
