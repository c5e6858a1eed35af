package validation

import (
	"testing"

	"github.com/hongminglow/student-api-be/internal/models/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRequestRequiredFields(t *testing.T) {
	v := New()
	errs := Errors{}
	v.Struct(dto.RegisterRequest{}, errs)

	for _, field := range []string{"name", "email", "password", "password_confirmation"} {
		require.Contains(t, errs, field)
	}
	assert.Equal(t, "The name field is required.", errs["name"][0])
}

func TestRegisterRequestEmailFormat(t *testing.T) {
	v := New()
	errs := Errors{}
	v.Struct(dto.RegisterRequest{
		Name:                 "Rakesh",
		Email:                "not-an-email",
		Password:             "secret123",
		PasswordConfirmation: "secret123",
	}, errs)

	require.Contains(t, errs, "email")
	assert.Equal(t, "The email must be a valid email address.", errs["email"][0])
}

func TestRegisterRequestConfirmationMismatch(t *testing.T) {
	v := New()
	errs := Errors{}
	v.Struct(dto.RegisterRequest{
		Name:                 "Rakesh",
		Email:                "rakesh@example.com",
		Password:             "secret123",
		PasswordConfirmation: "different",
	}, errs)

	require.Contains(t, errs, "password_confirmation")
	assert.Equal(t, "The password confirmation does not match.", errs["password_confirmation"][0])
	assert.NotContains(t, errs, "email")
}

func TestCreateStudentRequestDateRule(t *testing.T) {
	v := New()
	errs := Errors{}
	v.Struct(dto.CreateStudentRequest{
		Name:        "Priya",
		Email:       "priya@example.com",
		RollNumber:  "R-101",
		Class:       "5",
		Section:     "B",
		DateOfBirth: "31-12-2010",
		Address:     "12 Lake Road",
	}, errs)

	require.Contains(t, errs, "date_of_birth")
	assert.Equal(t, "The date of birth is not a valid date.", errs["date_of_birth"][0])
}

func TestUpdateStudentRequestSkipsOmittedFields(t *testing.T) {
	v := New()
	errs := Errors{}
	v.Struct(dto.UpdateStudentRequest{}, errs)
	assert.Empty(t, errs)
}

func TestUpdateStudentRequestChecksSuppliedFields(t *testing.T) {
	v := New()
	bad := "not-an-email"
	badDate := "yesterday"
	errs := Errors{}
	v.Struct(dto.UpdateStudentRequest{Email: &bad, DateOfBirth: &badDate}, errs)

	require.Contains(t, errs, "email")
	require.Contains(t, errs, "date_of_birth")
}

func TestTakenMessage(t *testing.T) {
	assert.Equal(t, "The roll number has already been taken.", Taken("roll_number"))
	assert.Equal(t, "The email has already been taken.", Taken("email"))
}
