package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hongminglow/student-api-be/internal/models"
	"github.com/hongminglow/student-api-be/internal/storage"
	"github.com/mattn/go-sqlite3"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store provides SQLite-backed persistence for users and students. It serves
// single-instance deployments and the test suite; the interface is identical
// to the Postgres store.
type Store struct {
	db *sql.DB
}

// New opens (creating if necessary) the SQLite file and runs migrations.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS students (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER REFERENCES users(id),
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			roll_number TEXT UNIQUE NOT NULL,
			class TEXT NOT NULL,
			section TEXT NOT NULL,
			date_of_birth TEXT NOT NULL,
			address TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS students_user_id_idx ON students (user_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `INSERT INTO users (name, email, password_hash, created_at) VALUES (?, ?, ?, ?);`
	res, err := s.db.ExecContext(ctx, query, user.Name, user.Email, user.PasswordHash, time.Now().UTC())
	if err != nil {
		return models.User{}, mapConstraint(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, err
	}
	return s.FindUserByID(ctx, id)
}

// FindUserByID fetches a user by primary key.
func (s *Store) FindUserByID(ctx context.Context, id int64) (models.User, error) {
	const query = `SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?;`
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

// FindUserByEmail fetches a user by email address.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?;`
	return scanUser(s.db.QueryRowContext(ctx, query, email))
}

// UserEmailTaken reports whether any user already holds the email.
func (s *Store) UserEmailTaken(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE email = ?);`
	var taken bool
	if err := s.db.QueryRowContext(ctx, query, email).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

// CreateStudent inserts a new student row.
func (s *Store) CreateStudent(ctx context.Context, student models.Student) (models.Student, error) {
	const query = `
	INSERT INTO students (user_id, name, email, roll_number, class, section, date_of_birth, address, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	res, err := s.db.ExecContext(ctx, query,
		student.UserID, student.Name, student.Email, student.RollNumber,
		student.Class, student.Section, student.DateOfBirth, student.Address, time.Now().UTC())
	if err != nil {
		return models.Student{}, mapConstraint(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Student{}, err
	}
	return s.FindStudentByID(ctx, id)
}

// FindStudentByID fetches a student by primary key.
func (s *Store) FindStudentByID(ctx context.Context, id int64) (models.Student, error) {
	const query = `
	SELECT id, user_id, name, email, roll_number, class, section, date_of_birth, address, created_at
	FROM students WHERE id = ?;
	`
	return scanStudent(s.db.QueryRowContext(ctx, query, id))
}

// FindStudentByUserID fetches the student linked to a user account.
func (s *Store) FindStudentByUserID(ctx context.Context, userID int64) (models.Student, error) {
	const query = `
	SELECT id, user_id, name, email, roll_number, class, section, date_of_birth, address, created_at
	FROM students WHERE user_id = ? ORDER BY id LIMIT 1;
	`
	return scanStudent(s.db.QueryRowContext(ctx, query, userID))
}

// StudentEmailTaken reports whether another student already holds the email.
func (s *Store) StudentEmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM students WHERE email = ? AND id <> ?);`
	var taken bool
	if err := s.db.QueryRowContext(ctx, query, email, excludeID).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

// RollNumberTaken reports whether another student already holds the roll number.
func (s *Store) RollNumberTaken(ctx context.Context, rollNumber string, excludeID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM students WHERE roll_number = ? AND id <> ?);`
	var taken bool
	if err := s.db.QueryRowContext(ctx, query, rollNumber, excludeID).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

// UpdateStudent persists the full student row and returns the stored state.
func (s *Store) UpdateStudent(ctx context.Context, student models.Student) (models.Student, error) {
	const query = `
	UPDATE students
	SET name = ?, email = ?, roll_number = ?, class = ?, section = ?, date_of_birth = ?, address = ?
	WHERE id = ?;
	`
	res, err := s.db.ExecContext(ctx, query,
		student.Name, student.Email, student.RollNumber,
		student.Class, student.Section, student.DateOfBirth, student.Address, student.ID)
	if err != nil {
		return models.Student{}, mapConstraint(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Student{}, err
	}
	if affected == 0 {
		return models.Student{}, storage.ErrNotFound
	}
	return s.FindStudentByID(ctx, student.ID)
}

// DeleteStudent removes a student row; storage.ErrNotFound if no row matched.
func (s *Store) DeleteStudent(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM students WHERE id = ?;`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func scanStudent(row *sql.Row) (models.Student, error) {
	var student models.Student
	var userID sql.NullInt64
	if err := row.Scan(&student.ID, &userID, &student.Name, &student.Email,
		&student.RollNumber, &student.Class, &student.Section,
		&student.DateOfBirth, &student.Address, &student.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Student{}, storage.ErrNotFound
		}
		return models.Student{}, err
	}
	if userID.Valid {
		student.UserID = &userID.Int64
	}
	return student, nil
}

func mapConstraint(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return storage.ErrAlreadyExists
	}
	return err
}
