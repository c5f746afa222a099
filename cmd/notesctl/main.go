// notesctl is the operator CLI: schema initialization and manual user
// creation against the configured database.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"syscall"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/server/auth"
	"github.com/dmitrijs2005/notekeeper/internal/server/config"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/notekeeper/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/term"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s <command> [flags]

Commands:
  init-db      run database migrations
  create-user  create a user account

Flags common to all commands:
  -d <dsn>     PostgreSQL DSN (default: $DATABASE_URL or the dev default)
`, os.Args[0])
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "init-db":
		err = runInitDB(os.Args[2:])
	case "create-user":
		err = runCreateUser(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func defaultDSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return cfg.DatabaseDSN
}

func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	return db, nil
}

func runInitDB(args []string) error {
	fs := flag.NewFlagSet("init-db", flag.ExitOnError)
	dsn := fs.String("d", defaultDSN(), "PostgreSQL DSN")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := openDB(*dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		return err
	}
	if err := m.RunMigrations(context.Background(), db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	fmt.Println("database initialized")
	return nil
}

func runCreateUser(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	dsn := fs.String("d", defaultDSN(), "PostgreSQL DSN")
	email := fs.String("email", "", "email of the new account")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("-email is required")
	}

	password, err := promptPassword()
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	db, err := openDB(*dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := users.NewPostgresRepository(db)
	user, err := repo.Create(context.Background(), &models.User{
		Email:        services.NormalizeEmail(*email),
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return fmt.Errorf("user %s already exists", *email)
		}
		return err
	}

	fmt.Printf("created user %s (id %s)\n", user.Email, user.ID)
	return nil
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if len(first) == 0 {
		return "", errors.New("password must not be empty")
	}

	fmt.Fprint(os.Stderr, "Repeat password: ")
	second, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}

	return string(first), nil
}
