package database

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/totegamma/tentd/internal/infra/database/models"
)

// NewPostgres opens the document store. SQL warnings go through zap.
func NewPostgres(dsn string, zl *zap.Logger) (*gorm.DB, error) {
	gormLogger := logger.New(
		zap.NewStdLog(zl.With(zap.String("module", "gorm"))),
		logger.Config{
			SlowThreshold:             300 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger,
	})
	return db, err
}

func MigratePostgres(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Entity{},
		&models.Profile{},
		&models.Follower{},
		&models.Post{},
	)
}

// DropAll removes every table owned by tentd.
func DropAll(db *gorm.DB) error {
	return db.Migrator().DropTable(
		&models.Post{},
		&models.Follower{},
		&models.Profile{},
		&models.Entity{},
	)
}
