package postgres

import (
	"log"
	"time"

	"thermlink/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the global database connection. It stays nil when no database
// is configured, and callers treat that as "persistence disabled".
var DB *gorm.DB

// Init opens the database connection, migrates the import table and sets
// the global DB variable
func Init(url string) *gorm.DB {
	// Import payloads are large JSON documents, so raise the slow SQL threshold
	gormLogger := logger.New(
		log.New(log.Writer(), "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold: time.Millisecond * 500,
		},
	)

	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger: gormLogger,
	})

	if err != nil {
		log.Fatalln(err)
	}

	if err := db.AutoMigrate(&model.ImportPG{}); err != nil {
		log.Fatalln("Failed to migrate Import model:", err)
	}

	log.Println("Successfully connected to PostgreSQL")
	DB = db

	return db
}

// GetDB returns the global database connection
func GetDB() *gorm.DB {
	return DB
}

// Close closes the underlying connection pool
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	log.Println("Closing PostgreSQL connection...")
	DB = nil
	return sqlDB.Close()
}
