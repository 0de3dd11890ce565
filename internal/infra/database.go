package infra

import (
	"fmt"

	"github.com/BulizzesRG/myownpos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and brings the
// schema up to date with Migrate.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs AutoMigrate for every table, then applies the idempotent SQL
// patches GORM cannot express. The statements are portable between PostgreSQL
// and SQLite so tests run the exact same schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.PriceHistory{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL statements that GORM AutoMigrate cannot
// handle on its own. Each statement uses IF NOT EXISTS semantics so re-running
// on an already-patched DB is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// Codes are unique among live rows only; a deleted product frees its codes.
		{"live barcode unique", `CREATE UNIQUE INDEX IF NOT EXISTS idx_products_live_barcode
			ON products (barcode) WHERE deleted_at IS NULL`},
		{"live alternative_code unique", `CREATE UNIQUE INDEX IF NOT EXISTS idx_products_live_alternative_code
			ON products (alternative_code) WHERE deleted_at IS NULL`},
		{"price history by product", `CREATE INDEX IF NOT EXISTS idx_price_histories_product_added
			ON price_histories (product_id, added_at)`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
