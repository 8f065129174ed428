package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/atulzaware51/blockchain-evoting/internal/app"
	"github.com/atulzaware51/blockchain-evoting/internal/auth"
	"github.com/atulzaware51/blockchain-evoting/internal/logger"
)

var (
	version = "dev"
)

func main() {
	port := flag.Int("port", 8081, "HTTP server port")
	dbPath := flag.String("db", "evoting.db", "SQLite database path")
	logLevel := flag.String("loglevel", "info", "Log level (debug, info, warn, error)")
	envFile := flag.String("env", ".env", "Path to env file with conductor credentials")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `evoting - Election Management Server

Usage:
  evoting [options]

Options:
  -port int      HTTP server port (default 8081)
  -db string     SQLite database path (default "evoting.db")
  -loglevel str  Log level: debug, info, warn, error (default "info")
  -env string    Env file with conductor credentials (default ".env")
  -version       Show version and exit
  -help          Show this help message

Environment:
  CONDUCTOR_EMAIL     Conductor login email (required)
  CONDUCTOR_PASSWORD  Conductor login password (required)

Examples:
  evoting                            # Run on port 8081 with evoting.db
  evoting -port 8080                 # Run on port 8080
  evoting -db /data/election.db      # Use custom database path
  evoting -env /etc/evoting/.env     # Load credentials from custom path

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("evoting %s\n", version)
		os.Exit(0)
	}

	// Missing env file is fine; credentials may come from the environment
	_ = godotenv.Load(*envFile)

	creds := auth.Credentials{
		Email:    os.Getenv("CONDUCTOR_EMAIL"),
		Password: os.Getenv("CONDUCTOR_PASSWORD"),
	}
	if creds.Email == "" || creds.Password == "" {
		log.Fatal("CONDUCTOR_EMAIL and CONDUCTOR_PASSWORD must be set")
	}

	// Create logger with specified level
	appLog := logger.NewWithLevel(logger.ParseLevel(*logLevel))

	a, err := app.New(appLog, *dbPath, creds)
	if err != nil {
		log.Fatal("Failed to initialize application:", err)
	}
	defer a.Close()

	addr := fmt.Sprintf(":%d", *port)
	if err := a.Run(addr); err != nil {
		log.Fatal(err)
	}
}
