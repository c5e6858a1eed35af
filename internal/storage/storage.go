package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/student-api-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore captures user persistence operations needed by handlers.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByID(ctx context.Context, id int64) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	UserEmailTaken(ctx context.Context, email string) (bool, error)
}

// StudentStore captures student persistence operations needed by handlers.
// The Taken checks accept an id to exclude so updates can re-validate
// uniqueness without tripping over the record being edited; pass 0 on create.
type StudentStore interface {
	CreateStudent(ctx context.Context, student models.Student) (models.Student, error)
	FindStudentByID(ctx context.Context, id int64) (models.Student, error)
	FindStudentByUserID(ctx context.Context, userID int64) (models.Student, error)
	StudentEmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	RollNumberTaken(ctx context.Context, rollNumber string, excludeID int64) (bool, error)
	UpdateStudent(ctx context.Context, student models.Student) (models.Student, error)
	DeleteStudent(ctx context.Context, id int64) error
}

// Store bundles the per-entity stores behind a single handle.
type Store interface {
	UserStore
	StudentStore
	Close()
}
