package repository

import (
	"context"
	"database/sql"
	"time"
)

// User is a row of the users table.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const userColumns = `id, name, email, password, role, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreateUserParams holds the columns written on insert.
type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	Role         string
}

const createUser = `
INSERT INTO users (name, email, password, role)
VALUES ($1, $2, $3, $4)
RETURNING ` + userColumns

// CreateUser inserts a user. A duplicate email surfaces as the driver's
// unique-violation error.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser, arg.Name, arg.Email, arg.PasswordHash, arg.Role)
	return scanUser(row)
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`

// GetUserByEmail returns sql.ErrNoRows when no user has the email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`

// GetUserByID returns sql.ErrNoRows when the user does not exist.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const listUsers = `SELECT ` + userColumns + ` FROM users ORDER BY id`

// ListUsers returns all users ordered by id.
func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateUserParams holds the new column values. Null fields keep their
// current value.
type UpdateUserParams struct {
	ID    int64
	Name  sql.NullString
	Email sql.NullString
	Role  sql.NullString
}

const updateUser = `
UPDATE users SET
    name = COALESCE($2, name),
    email = COALESCE($3, email),
    role = COALESCE($4, role),
    updated_at = NOW()
WHERE id = $1
RETURNING ` + userColumns

// UpdateUser returns sql.ErrNoRows when the user does not exist.
func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, updateUser, arg.ID, arg.Name, arg.Email, arg.Role)
	return scanUser(row)
}

const deleteUser = `DELETE FROM users WHERE id = $1`

// DeleteUser returns sql.ErrNoRows when nothing was deleted.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, deleteUser, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
