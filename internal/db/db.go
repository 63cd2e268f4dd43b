// internal/db/db.go
package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bookwise-app/bookwise-server/internal/logger"
	"github.com/bookwise-app/bookwise-server/internal/models"
)

// Service owns the gorm handle for the content store.
type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

// New connects to the content store. Postgres URLs get the postgres driver;
// anything else is treated as a SQLite path (used by tests and local dev).
func New(databaseURL string, log *logger.Logger) (*Service, error) {
	serviceLog := log.With("service", "db")

	var dialector gorm.Dialector
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		dialector = postgres.Open(databaseURL)
	} else {
		dialector = sqlite.Open(databaseURL)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		serviceLog.Error("failed to connect to content store", "error", err)
		return nil, fmt.Errorf("failed to connect to content store: %w", err)
	}

	return &Service{db: gdb, log: serviceLog}, nil
}

// AutoMigrate creates or updates every table the application uses.
func (s *Service) AutoMigrate() error {
	s.log.Info("migrating content store tables")
	return s.db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Book{},
		&models.BookSummary{},
		&models.BookChapter{},
		&models.Review{},
		&models.Favorite{},
		&models.SubscriptionOrder{},
	)
}

// DB exposes the underlying gorm handle for the repositories.
func (s *Service) DB() *gorm.DB {
	return s.db
}
