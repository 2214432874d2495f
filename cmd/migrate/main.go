// migrate applies the embedded schema migrations.
// Run: go run ./cmd/migrate [-steps N] up|down|version
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"

	"github.com/ErlanBelekov/storefront/migrations"
)

func main() {
	steps := flag.Int("steps", 0, "number of migrations to apply or roll back (0 = all for up, 1 for down)")
	flag.Parse()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	m, err := migrations.New(dbURL)
	if err != nil {
		log.Fatalf("migrate: %v", err)
	}
	defer func() { _, _ = m.Close() }()

	switch cmd := flag.Arg(0); cmd {
	case "up":
		if *steps > 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
	case "down":
		n := *steps
		if n <= 0 {
			n = 1
		}
		err = m.Steps(-n)
	case "version", "":
	default:
		log.Fatalf("unknown command %q (want up, down or version)", cmd)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("migrate %s: %v", flag.Arg(0), err)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		fmt.Println("schema version: none")
	case err != nil:
		log.Fatalf("read version: %v", err)
	default:
		fmt.Printf("schema version: %d (dirty=%t)\n", version, dirty)
	}
}
