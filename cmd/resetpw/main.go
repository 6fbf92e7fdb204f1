package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"streamhive/internal/database"
)

const (
	// Default timeout for database operations
	defaultTimeout = 30 * time.Second
	// Default database directory path
	defaultDatabaseDir = "/database"
)

func main() {
	if len(os.Args) < 3 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	email := strings.ToLower(strings.TrimSpace(os.Args[2]))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	databaseDir := os.Getenv("DATABASE_DIR")
	if databaseDir == "" {
		databaseDir = defaultDatabaseDir
	}
	dbPath := filepath.Join(databaseDir, "streamhive.db")

	db, err := database.New(ctx, dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to database: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure DATABASE_DIR is set correctly (current: %s)\n", databaseDir)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	switch command {
	case "reset":
		if !resetPassword(ctx, db, email) {
			os.Exit(1)
		}
	case "status":
		if !showStatus(ctx, db, email) {
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitizeCommand(command))
		printUsage()
		os.Exit(1)
	}
}

// sanitizeCommand returns a safe representation of a command string for
// display. It uses an allowlist approach, replacing any character that
// is not alphanumeric, a hyphen, or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage() {
	fmt.Println("StreamHive Password Management")
	fmt.Println("")
	fmt.Println("Usage: resetpw <command> <email>")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  reset   - Reset the password for the account with the given email")
	fmt.Println("  status  - Check whether an account exists for the given email")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Printf("  DATABASE_DIR - Path to database directory (default: %s)\n", defaultDatabaseDir)
}

func resetPassword(ctx context.Context, db *database.Database, email string) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	user, err := db.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "Error: No account found for %s\n", email)
		} else {
			fmt.Fprintf(os.Stderr, "Error: Failed to look up account: %v\n", err)
		}
		return false
	}

	fmt.Print("New Password: ")
	password, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		return false
	}

	fmt.Print("Confirm Password: ")
	confirm, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		return false
	}

	if !bytes.Equal(password, confirm) {
		fmt.Fprintln(os.Stderr, "Error: Passwords do not match")
		return false
	}

	if len(password) < 6 {
		fmt.Fprintln(os.Stderr, "Error: Password must be at least 6 characters")
		return false
	}

	if err := db.SetPassword(ctx, user.ID, string(password)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to update password: %v\n", err)
		return false
	}

	fmt.Println("Password updated successfully.")
	return true
}

func showStatus(ctx context.Context, db *database.Database, email string) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	user, err := db.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			fmt.Printf("Status: No account found for %s\n", email)
			return true
		}
		fmt.Fprintf(os.Stderr, "Error: Failed to look up account: %v\n", err)
		return false
	}

	fmt.Printf("Status: Account %q exists (registered as %s)\n", user.Username, user.Email)
	return true
}
