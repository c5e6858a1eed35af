package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hongminglow/student-api-be/internal/http/respond"
	"github.com/hongminglow/student-api-be/internal/middleware"
	"github.com/hongminglow/student-api-be/internal/models"
	"github.com/hongminglow/student-api-be/internal/models/dto"
	"github.com/hongminglow/student-api-be/internal/storage"
	"github.com/hongminglow/student-api-be/internal/validation"
	"go.uber.org/zap"
)

// StudentHandler owns the student record endpoints. All of them require an
// authenticated caller.
type StudentHandler struct {
	store    storage.Store
	validate *validation.Validator
	log      *zap.Logger
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(store storage.Store, validate *validation.Validator, log *zap.Logger) *StudentHandler {
	return &StudentHandler{store: store, validate: validate, log: log}
}

// Register attaches student routes to the mux.
func (h *StudentHandler) Register(mux *http.ServeMux, requireAuth func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("POST /student_register", requireAuth(h.handleCreate))
	mux.HandleFunc("GET /student_list", requireAuth(h.handleList))
	mux.HandleFunc("PUT /students/{id}", requireAuth(h.handleUpdate))
	mux.HandleFunc("DELETE /students/{id}", requireAuth(h.handleDelete))
}

func (h *StudentHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	errs := validation.Errors{}
	h.validate.Struct(req, errs)
	email := strings.TrimSpace(req.Email)
	if !errs.Has("email") {
		// Student emails are validated against the users table, not the
		// students table. The published contract requires exactly that.
		taken, err := h.store.UserEmailTaken(r.Context(), email)
		if err != nil {
			h.log.Error("check student email uniqueness failed", zap.Error(err))
			respond.Fail(w, http.StatusInternalServerError, "Failed to register student")
			return
		}
		if taken {
			errs.Add("email", validation.Taken("email"))
		}
	}
	if !errs.Has("roll_number") {
		taken, err := h.store.RollNumberTaken(r.Context(), strings.TrimSpace(req.RollNumber), 0)
		if err != nil {
			h.log.Error("check roll number uniqueness failed", zap.Error(err))
			respond.Fail(w, http.StatusInternalServerError, "Failed to register student")
			return
		}
		if taken {
			errs.Add("roll_number", validation.Taken("roll_number"))
		}
	}
	if len(errs) > 0 {
		respond.ValidationFailed(w, errs)
		return
	}

	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	student := models.Student{
		UserID:      &caller.ID,
		Name:        strings.TrimSpace(req.Name),
		Email:       email,
		RollNumber:  strings.TrimSpace(req.RollNumber),
		Class:       strings.TrimSpace(req.Class),
		Section:     strings.TrimSpace(req.Section),
		DateOfBirth: strings.TrimSpace(req.DateOfBirth),
		Address:     strings.TrimSpace(req.Address),
	}
	if _, err := h.store.CreateStudent(r.Context(), student); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			h.collectStudentConflicts(r.Context(), student.Email, student.RollNumber, 0, errs)
			respond.ValidationFailed(w, errs)
			return
		}
		h.log.Error("create student failed", zap.Error(err))
		respond.Fail(w, http.StatusInternalServerError, "Failed to register student")
		return
	}

	respond.OK(w, "Student registered successfully", nil)
}

func (h *StudentHandler) handleList(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	student, err := h.store.FindStudentByUserID(r.Context(), caller.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Fail(w, http.StatusNotFound, "Student data not found for this user")
			return
		}
		h.log.Error("fetch linked student failed", zap.Int64("user_id", caller.ID), zap.Error(err))
		respond.Fail(w, http.StatusInternalServerError, "Failed to fetch student")
		return
	}

	respond.OK(w, "Profile data", student)
}

func (h *StudentHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, "Invalid student id")
		return
	}

	var req dto.UpdateStudentRequest
	err = json.NewDecoder(r.Body).Decode(&req)
	if errors.Is(err, io.EOF) {
		respond.Fail(w, http.StatusBadRequest, "Request body is empty")
		return
	}
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	// Validation runs before existence is checked, so a malformed payload
	// yields 422 even for an unknown id.
	errs := validation.Errors{}
	h.validate.Struct(req, errs)
	if req.Email != nil && !errs.Has("email") {
		taken, err := h.store.StudentEmailTaken(r.Context(), strings.TrimSpace(*req.Email), id)
		if err != nil {
			h.log.Error("check student email uniqueness failed", zap.Error(err))
			respond.Fail(w, http.StatusInternalServerError, "Failed to update student")
			return
		}
		if taken {
			errs.Add("email", validation.Taken("email"))
		}
	}
	if req.RollNumber != nil && !errs.Has("roll_number") {
		taken, err := h.store.RollNumberTaken(r.Context(), strings.TrimSpace(*req.RollNumber), id)
		if err != nil {
			h.log.Error("check roll number uniqueness failed", zap.Error(err))
			respond.Fail(w, http.StatusInternalServerError, "Failed to update student")
			return
		}
		if taken {
			errs.Add("roll_number", validation.Taken("roll_number"))
		}
	}
	if len(errs) > 0 {
		respond.ValidationFailed(w, errs)
		return
	}

	student, err := h.store.FindStudentByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Fail(w, http.StatusNotFound, "Student data not found")
			return
		}
		h.log.Error("fetch student failed", zap.Int64("id", id), zap.Error(err))
		respond.Fail(w, http.StatusInternalServerError, "Failed to update student")
		return
	}

	applyUpdates(&student, req)

	updated, err := h.store.UpdateStudent(r.Context(), student)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			respond.Fail(w, http.StatusNotFound, "Student data not found")
		case errors.Is(err, storage.ErrAlreadyExists):
			h.collectStudentConflicts(r.Context(), student.Email, student.RollNumber, id, errs)
			respond.ValidationFailed(w, errs)
		default:
			h.log.Error("update student failed", zap.Int64("id", id), zap.Error(err))
			respond.Fail(w, http.StatusInternalServerError, "Failed to update student")
		}
		return
	}

	respond.OK(w, "Student profile updated successfully", updated)
}

func (h *StudentHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, "Invalid student id")
		return
	}

	if err := h.store.DeleteStudent(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Fail(w, http.StatusNotFound, "Student not found")
			return
		}
		h.log.Error("delete student failed", zap.Int64("id", id), zap.Error(err))
		respond.Fail(w, http.StatusInternalServerError, "Failed to delete student")
		return
	}

	respond.OK(w, "Student deleted successfully", nil)
}

// applyUpdates copies only the fields present in the request onto the stored
// record; omitted fields keep their existing value.
func applyUpdates(student *models.Student, req dto.UpdateStudentRequest) {
	if req.Name != nil {
		student.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		student.Email = strings.TrimSpace(*req.Email)
	}
	if req.RollNumber != nil {
		student.RollNumber = strings.TrimSpace(*req.RollNumber)
	}
	if req.Class != nil {
		student.Class = strings.TrimSpace(*req.Class)
	}
	if req.Section != nil {
		student.Section = strings.TrimSpace(*req.Section)
	}
	if req.DateOfBirth != nil {
		student.DateOfBirth = strings.TrimSpace(*req.DateOfBirth)
	}
	if req.Address != nil {
		student.Address = strings.TrimSpace(*req.Address)
	}
}

// collectStudentConflicts re-runs the uniqueness checks after a constraint
// violation surfaced from the store, so the 422 names the conflicting field.
// The pre-insert checks make this a race-window path only.
func (h *StudentHandler) collectStudentConflicts(ctx context.Context, email, rollNumber string, excludeID int64, errs validation.Errors) {
	if taken, err := h.store.StudentEmailTaken(ctx, email, excludeID); err == nil && taken {
		errs.Add("email", validation.Taken("email"))
	}
	if taken, err := h.store.RollNumberTaken(ctx, rollNumber, excludeID); err == nil && taken {
		errs.Add("roll_number", validation.Taken("roll_number"))
	}
	if len(errs) == 0 {
		errs.Add("roll_number", validation.Taken("roll_number"))
	}
}
