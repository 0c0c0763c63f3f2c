package main

import (
	"cart-route-service/internal/adapters/repositories"
	"cart-route-service/internal/config"
	"cart-route-service/internal/ports"
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

var rootCmd = &cobra.Command{
	Use:   "dbtool",
	Short: "Manage the corral snapshot history database",
	Long: `dbtool initializes, seeds and inspects the snapshot history database
used by the cart route service. Connection settings default to the same
environment variables the server reads (HISTORY_DB_DRIVER, HISTORY_DB_PATH,
DATABASE_URL).`,
	SilenceUsage: true,
}

var (
	dbDriver    string
	sqlitePath  string
	databaseURL string
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	rootCmd.PersistentFlags().StringVar(&dbDriver, "driver", config.Get("HISTORY_DB_DRIVER", repositories.DriverSQLite), "History database driver (sqlite or pgx)")
	rootCmd.PersistentFlags().StringVar(&sqlitePath, "sqlite-path", config.Get("HISTORY_DB_PATH", "data/history.db"), "SQLite database file")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection URL")

	seedCmd.Flags().StringVar(&seedPath, "file", config.Get("SEED_PATH", "data/seeds/corrals.json"), "Seed snapshot JSON file")

	historyCmd.Flags().StringVar(&historyCorral, "corral", "", "Only list snapshots for this corral")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of snapshots")

	rootCmd.AddCommand(initCmd, seedCmd, historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openHistory opens the configured database and ensures its schema.
func openHistory() (*sql.DB, ports.SnapshotRepository, error) {
	if dbDriver == repositories.DriverNone {
		return nil, nil, fmt.Errorf("history database is disabled (driver %q)", dbDriver)
	}
	if dbDriver == repositories.DriverPostgres && databaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required for driver %q", dbDriver)
	}

	return repositories.OpenHistory(dbDriver, sqlitePath, databaseURL)
}
