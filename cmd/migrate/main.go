package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"aufseher/internal/config"
	"aufseher/internal/logging"
	"aufseher/migrations"
)

type command struct {
	name string
	help string
	run  func(db *sql.DB, dir string) error
}

var commands = []command{
	{"up", "Migrate the journal to the latest version", func(db *sql.DB, dir string) error { return goose.Up(db, dir) }},
	{"up-one", "Migrate one version up", func(db *sql.DB, dir string) error { return goose.UpByOne(db, dir) }},
	{"down", "Roll back one version", func(db *sql.DB, dir string) error { return goose.Down(db, dir) }},
	{"status", "Show migration status", func(db *sql.DB, dir string) error { return goose.Status(db, dir) }},
	{"version", "Show current version", func(db *sql.DB, dir string) error { return goose.Version(db, dir) }},
	{"reset", "Roll back all migrations", func(db *sql.DB, dir string) error { return goose.Reset(db, dir) }},
}

func main() {
	dbPath := flag.String("db", envOrDefault("DATABASE_PATH", config.DefaultDatabasePath), "path to the journal database")
	flag.Usage = usage
	flag.Parse()

	log := logging.New(os.Stderr, os.Getenv("LOG_LEVEL"))

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}
	cmd, ok := lookup(args[0])
	if !ok {
		log.Error("unknown command", "command", args[0])
		os.Exit(1)
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		log.Error("open database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		log.Error("set dialect", "error", err)
		os.Exit(1)
	}

	if err := cmd.run(db, "."); err != nil {
		log.Error("migrate", "command", cmd.name, "path", *dbPath, "error", err)
		os.Exit(1)
	}
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: migrate [-db path] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-10s  %s\n", c.name, c.help)
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
