package client

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"healthcare-booking-api/internal/model"
)

// InitDatabase connects to MySQL when DATABASE_URL is set, otherwise falls
// back to a local sqlite file for development.
func InitDatabase(databaseURL string) *gorm.DB {
	var (
		db  *gorm.DB
		err error
	)

	if databaseURL != "" {
		db, err = gorm.Open(mysql.Open(databaseURL), &gorm.Config{})
	} else {
		db, err = gorm.Open(sqlite.Open("bookings.db"), &gorm.Config{})
	}
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Fatal("failed to get sql db handle")
	}

	// Connection pool (important for webhooks)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		logrus.WithError(err).Fatal("failed to migrate database")
	}

	return db
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Offer{},
		&model.Client{},
		&model.Booking{},
		&model.Payment{},
		&model.WebhookEvent{},
	)
}
