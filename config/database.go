package config

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Development fallback used when DB_URL is unset. Never valid in release mode.
const devFallbackDSN = "host=localhost user=postgres password=postgres dbname=online_banking port=5432 sslmode=disable"

func ConnectDB() {
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		if gin.Mode() == gin.ReleaseMode {
			log.Fatal("DB_URL must be set in release mode")
		}
		log.Println("DB_URL not set, using development fallback DSN")
		dsn = devFallbackDSN
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxIdleConns(25)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
		sqlDB.SetConnMaxIdleTime(time.Minute)
	}

	DB = db
}
