package main

import (
	"database/sql"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"delivery-dispatch-service/internal/adapters/repositories"
	"delivery-dispatch-service/internal/platform/db"
)

// dbtool initializes the schema and loads an order seed file. Meant for local
// setups and demo environments; the server also runs InitSchema on boot.
func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		logrus.Fatal("DATABASE_URL is required")
	}

	database, err := db.Open(databaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("open database")
	}
	defer database.Close()

	seedPath := os.Getenv("SEED_PATH")
	if seedPath == "" {
		seedPath = "data/seeds/orders.json"
	}

	if err := initAndSeed(database, seedPath); err != nil {
		logrus.WithError(err).Fatal("database setup failed")
	}
}

func initAndSeed(database *sql.DB, seedPath string) error {
	logrus.Info("Initializing database schema...")
	if err := repositories.InitSchema(database); err != nil {
		return err
	}
	logrus.Info("Schema ready.")

	logrus.WithField("path", seedPath).Info("Seeding orders...")
	if err := repositories.SeedFromJSON(database, seedPath); err != nil {
		return err
	}
	logrus.Info("Seeding complete.")
	return nil
}
