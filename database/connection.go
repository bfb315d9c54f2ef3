package database

import (
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Connect opens the PostgreSQL connection used for the delivery history
// archive. On Cloud Run it goes through the Cloud SQL unix socket,
// locally over TCP.
func Connect() {
	dbUser := getenv("DB_USER", "postgres")
	dbPass := os.Getenv("DB_PASS")
	dbName := getenv("DB_NAME", "h2delivery")
	dbHost := getenv("DB_HOST", "localhost")
	dbPort := getenv("DB_PORT", "5432")

	var dsn string
	if instance := os.Getenv("INSTANCE_CONNECTION_NAME"); instance != "" {
		dsn = fmt.Sprintf("host=/cloudsql/%s user=%s password=%s dbname=%s sslmode=disable",
			instance, dbUser, dbPass, dbName)
		log.Printf("Connecting to Cloud SQL via socket: %s", instance)
	} else {
		dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			dbHost, dbUser, dbPass, dbName, dbPort)
		log.Printf("Connecting to PostgreSQL at %s:%s", dbHost, dbPort)
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		panic(err)
	}

	log.Println("✅ Database connected successfully!")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
