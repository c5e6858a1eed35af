package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/hongminglow/student-api-be/internal/models"
	"github.com/hongminglow/student-api-be/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store provides Postgres-backed persistence for users and students.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new Store and runs migrations.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS students (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT REFERENCES users(id),
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			roll_number TEXT UNIQUE NOT NULL,
			class TEXT NOT NULL,
			section TEXT NOT NULL,
			date_of_birth TEXT NOT NULL,
			address TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS students_user_id_idx ON students (user_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
	INSERT INTO users (name, email, password_hash)
	VALUES ($1, $2, $3)
	RETURNING id, name, email, password_hash, created_at;
	`
	row := s.pool.QueryRow(ctx, query, user.Name, user.Email, user.PasswordHash)
	created, err := scanUser(row)
	if err != nil {
		return models.User{}, mapConstraint(err)
	}
	return created, nil
}

// FindUserByID fetches a user by primary key.
func (s *Store) FindUserByID(ctx context.Context, id int64) (models.User, error) {
	const query = `
	SELECT id, name, email, password_hash, created_at
	FROM users WHERE id = $1;
	`
	return scanUser(s.pool.QueryRow(ctx, query, id))
}

// FindUserByEmail fetches a user by email address.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
	SELECT id, name, email, password_hash, created_at
	FROM users WHERE email = $1;
	`
	return scanUser(s.pool.QueryRow(ctx, query, email))
}

// UserEmailTaken reports whether any user already holds the email.
func (s *Store) UserEmailTaken(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1);`
	var taken bool
	if err := s.pool.QueryRow(ctx, query, email).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

// CreateStudent inserts a new student row.
func (s *Store) CreateStudent(ctx context.Context, student models.Student) (models.Student, error) {
	const query = `
	INSERT INTO students (user_id, name, email, roll_number, class, section, date_of_birth, address)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id, user_id, name, email, roll_number, class, section, date_of_birth, address, created_at;
	`
	row := s.pool.QueryRow(ctx, query,
		student.UserID, student.Name, student.Email, student.RollNumber,
		student.Class, student.Section, student.DateOfBirth, student.Address)
	created, err := scanStudent(row)
	if err != nil {
		return models.Student{}, mapConstraint(err)
	}
	return created, nil
}

// FindStudentByID fetches a student by primary key.
func (s *Store) FindStudentByID(ctx context.Context, id int64) (models.Student, error) {
	const query = `
	SELECT id, user_id, name, email, roll_number, class, section, date_of_birth, address, created_at
	FROM students WHERE id = $1;
	`
	return scanStudent(s.pool.QueryRow(ctx, query, id))
}

// FindStudentByUserID fetches the student linked to a user account.
func (s *Store) FindStudentByUserID(ctx context.Context, userID int64) (models.Student, error) {
	const query = `
	SELECT id, user_id, name, email, roll_number, class, section, date_of_birth, address, created_at
	FROM students WHERE user_id = $1
	ORDER BY id LIMIT 1;
	`
	return scanStudent(s.pool.QueryRow(ctx, query, userID))
}

// StudentEmailTaken reports whether another student already holds the email.
func (s *Store) StudentEmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM students WHERE email = $1 AND id <> $2);`
	var taken bool
	if err := s.pool.QueryRow(ctx, query, email, excludeID).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

// RollNumberTaken reports whether another student already holds the roll number.
func (s *Store) RollNumberTaken(ctx context.Context, rollNumber string, excludeID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM students WHERE roll_number = $1 AND id <> $2);`
	var taken bool
	if err := s.pool.QueryRow(ctx, query, rollNumber, excludeID).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

// UpdateStudent persists the full student row and returns the stored state.
func (s *Store) UpdateStudent(ctx context.Context, student models.Student) (models.Student, error) {
	const query = `
	UPDATE students
	SET name = $2, email = $3, roll_number = $4, class = $5, section = $6, date_of_birth = $7, address = $8
	WHERE id = $1
	RETURNING id, user_id, name, email, roll_number, class, section, date_of_birth, address, created_at;
	`
	row := s.pool.QueryRow(ctx, query, student.ID,
		student.Name, student.Email, student.RollNumber,
		student.Class, student.Section, student.DateOfBirth, student.Address)
	updated, err := scanStudent(row)
	if err != nil {
		return models.Student{}, mapConstraint(err)
	}
	return updated, nil
}

// DeleteStudent removes a student row; storage.ErrNotFound if no row matched.
func (s *Store) DeleteStudent(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM students WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func scanStudent(row pgx.Row) (models.Student, error) {
	var student models.Student
	if err := row.Scan(&student.ID, &student.UserID, &student.Name, &student.Email,
		&student.RollNumber, &student.Class, &student.Section,
		&student.DateOfBirth, &student.Address, &student.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Student{}, storage.ErrNotFound
		}
		return models.Student{}, err
	}
	return student, nil
}

func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return storage.ErrAlreadyExists
	}
	return err
}
