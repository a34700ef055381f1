package library

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Authenticate on a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// userColumns keeps scanning uniform; password may be empty for accounts
// provisioned without one.
const userColumns = `id, username, COALESCE(password,'') AS password, role, COALESCE(created_date,'') AS created_date`

// CreateUser provisions an account. An empty password leaves the account
// without credentials (the default seed users work this way); otherwise the
// bcrypt hash is stored, never the password itself.
func (s *Store) CreateUser(name string, role Role, password string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("create user: name cannot be empty")
	}
	switch role {
	case RolePatron, RoleLibrarian, RoleAdmin:
	default:
		return 0, fmt.Errorf("create user: unknown role %q", role)
	}

	hash := ""
	if password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return 0, fmt.Errorf("hash password: %w", err)
		}
		hash = string(h)
	}

	res, err := s.insertUserStmt.Exec(name, hash, string(role))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, fmt.Errorf("user %q: %w", name, ErrConstraintViolation)
		}
		return 0, storeErr("create user", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("create user", err)
	}
	return id, nil
}

// FindUser fetches an account by its unique name.
func (s *Store) FindUser(name string) (User, error) {
	var u User
	err := s.db.Get(&u, `SELECT `+userColumns+` FROM users WHERE username=?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("user %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return User{}, storeErr("find user", err)
	}
	return u, nil
}

// UserByID fetches an account by its id.
func (s *Store) UserByID(id int64) (User, error) {
	var u User
	err := s.db.Get(&u, `SELECT `+userColumns+` FROM users WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return User{}, storeErr("load user", err)
	}
	return u, nil
}

// AllUsers returns every account in key order.
func (s *Store) AllUsers() ([]User, error) {
	var users []User
	if err := s.db.Select(&users, `SELECT `+userColumns+` FROM users ORDER BY id`); err != nil {
		return nil, storeErr("load users", err)
	}
	return users, nil
}

// Authenticate verifies a name/password pair and returns the account.
// Accounts provisioned without a password reject every login attempt.
func (s *Store) Authenticate(name, password string) (User, error) {
	u, err := s.FindUser(name)
	if err != nil {
		return User{}, err
	}
	if u.PasswordHash == "" {
		return User{}, fmt.Errorf("user %q has no password set: %w", name, ErrInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, fmt.Errorf("user %q: %w", name, ErrInvalidCredentials)
	}
	return u, nil
}

// SetPassword replaces the account's credential with a fresh bcrypt hash.
func (s *Store) SetPassword(id int64, password string) error {
	if password == "" {
		return fmt.Errorf("set password: password cannot be empty")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	res, err := s.db.Exec(`UPDATE users SET password=? WHERE id=?`, string(h), id)
	if err != nil {
		return storeErr("set password", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("set password", err)
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return nil
}
