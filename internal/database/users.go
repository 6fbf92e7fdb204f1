package database

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"streamhive/internal/logging"
)

// resetTokenTTL bounds how long a password-reset token stays valid.
const resetTokenTTL = 15 * time.Minute

// ErrInvalidCredentials is returned when authentication fails. It is
// deliberately indistinct between "no such user" and "wrong password".
var ErrInvalidCredentials = errors.New("invalid credentials")

// CreateUser registers a new account with a bcrypt-hashed password.
func (d *Database) CreateUser(ctx context.Context, id, username, email, password string) (*User, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_user", start, err) }()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now()
	_, err = d.db.ExecContext(opCtx, `
		INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, username, email, string(hash), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &User{
		ID:        id,
		Username:  username,
		Email:     email,
		Role:      "user",
		CreatedAt: now,
	}, nil
}

// GetUserByEmail retrieves an account by email address.
func (d *Database) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return d.getUser(ctx, "get_user_by_email", `
		SELECT id, username, email, password_hash, role, avatar, created_at
		FROM users WHERE email = ?
	`, email)
}

// GetUser retrieves an account by id.
func (d *Database) GetUser(ctx context.Context, id string) (*User, error) {
	return d.getUser(ctx, "get_user", `
		SELECT id, username, email, password_hash, role, avatar, created_at
		FROM users WHERE id = ?
	`, id)
}

func (d *Database) getUser(ctx context.Context, operation, query string, arg any) (*User, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery(operation, start, err) }()

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var u User
	var createdAt int64

	err = d.db.QueryRowContext(opCtx, query, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Avatar, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.CreatedAt = time.Unix(createdAt, 0)
	return &u, nil
}

// Authenticate verifies an email/password pair and returns the account.
func (d *Database) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := d.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// SetPassword replaces an account's password hash and clears any
// outstanding reset token.
func (d *Database) SetPassword(ctx context.Context, userID, password string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_password", start, err) }()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(opCtx, `
		UPDATE users SET password_hash = ?, reset_token = NULL, reset_expires = NULL WHERE id = ?
	`, string(hash), userID)
	if err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}

	if rows, rowsErr := result.RowsAffected(); rowsErr == nil && rows == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}

// CreateResetToken issues a password-reset token for the account with
// the given email and returns it. The token expires after 15 minutes.
func (d *Database) CreateResetToken(ctx context.Context, email string) (string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_reset_token", start, err) }()

	buf := make([]byte, 20)
	if _, err = rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	token := hex.EncodeToString(buf)

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(opCtx, `
		UPDATE users SET reset_token = ?, reset_expires = ? WHERE email = ?
	`, token, time.Now().Add(resetTokenTTL).Unix(), email)
	if err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}

	if rows, rowsErr := result.RowsAffected(); rowsErr == nil && rows == 0 {
		err = ErrNotFound
		return "", err
	}

	logging.Info("Password reset token issued for %s", email)
	return token, nil
}

// ResetPassword redeems a reset token, setting the new password if the
// token exists and has not expired.
func (d *Database) ResetPassword(ctx context.Context, token, password string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("reset_password", start, err) }()

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var userID string
	err = d.db.QueryRowContext(opCtx, `
		SELECT id FROM users WHERE reset_token = ? AND reset_expires > ?
	`, token, time.Now().Unix()).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to look up reset token: %w", err)
	}

	return d.SetPassword(ctx, userID, password)
}
