package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/xo/dburl"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/elliotttmiller/NSSPORTS-sub002/config"
	"github.com/elliotttmiller/NSSPORTS-sub002/models"
	"github.com/elliotttmiller/NSSPORTS-sub002/scheduler"
	"github.com/elliotttmiller/NSSPORTS-sub002/services/extService"
)

var db *gorm.DB

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	dialector, err := openDialector(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatalf("failed to resolve database url: %v", err)
	}

	db, err = gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// Duplicate-key errors must surface as gorm.ErrDuplicatedKey so
		// placement can resolve idempotency races.
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(&models.User{}, &models.Wager{}, &models.Leg{}, &models.LedgerEntry{}, &models.ErrorLog{})
	if err != nil {
		log.Fatalf("Error migrating database: %v", err)
	}
}

// openDialector picks the GORM driver from the DATABASE_URL scheme. An empty
// url falls back to a local sqlite file for development.
func openDialector(rawURL string) (gorm.Dialector, error) {
	if rawURL == "" {
		return sqlite.Open("nssports.db"), nil
	}

	u, err := dburl.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	switch u.Driver {
	case "mysql":
		return mysql.Open(u.DSN + "?charset=utf8mb4&parseTime=True&loc=Local"), nil
	case "sqlite3":
		return sqlite.Open(u.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", u.Driver)
	}
}

func main() {
	engineCfg, err := config.Load(os.Getenv("ENGINE_CONFIG"))
	if err != nil {
		log.Fatalf("Error loading engine config: %v", err)
	}

	scoreboardURL := os.Getenv("SCOREBOARD_URL")
	if scoreboardURL == "" {
		scoreboardURL = "http://site.api.espn.com/apis/site/v2/sports/football/nfl/scoreboard"
	}
	feed := extService.NewScoreboardClient(scoreboardURL)

	cronService := scheduler.SetupCron(db, engineCfg, feed)

	log.Println("Wager engine is running. Press CTRL+C to exit.")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	<-cronService.Stop().Done()
	log.Println("Shutdown complete.")
}
