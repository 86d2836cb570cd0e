package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/gatesweb/emlak-directory/internal/auth"
	"github.com/gatesweb/emlak-directory/internal/entity"
	"github.com/gatesweb/emlak-directory/internal/repository"
	"github.com/gatesweb/emlak-directory/internal/service"
)

func newUsersHandler(t *testing.T, repo repository.UsersRepository) *UsersHandler {
	t.Helper()
	jwtManager := auth.NewJWTManager("test-secret", 0)
	return NewUsersHandler(service.NewAuthService(repo, jwtManager))
}

func testUser(id uuid.UUID, email, role string) *entity.User {
	now := time.Now()
	return &entity.User{
		ID:           id,
		Email:        email,
		PasswordHash: "hash",
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUsersHandler_List(t *testing.T) {
	e := echo.New()
	repo := &stubUsersRepo{list: func(ctx context.Context) ([]entity.User, error) {
		return []entity.User{
			*testUser(uuid.New(), "admin@example.com", "admin"),
			*testUser(uuid.New(), "user@example.com", "user"),
		}, nil
	}}
	h := newUsersHandler(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	rec := httptest.NewRecorder()
	if err := h.List(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"count":2`) {
		t.Fatalf("expected count 2 in body: %s", body)
	}
	if strings.Contains(body, "password") || strings.Contains(body, "hash") {
		t.Fatalf("password material leaked into response: %s", body)
	}
}

func TestUsersHandler_Get(t *testing.T) {
	e := echo.New()
	userID := uuid.New()
	repo := &stubUsersRepo{findByID: func(ctx context.Context, id uuid.UUID) (*entity.User, error) {
		if id != userID {
			return nil, repository.ErrUserNotFound
		}
		return testUser(userID, "admin@example.com", "admin"), nil
	}}
	h := newUsersHandler(t, repo)

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(userID.String())

		if err := h.Get(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "admin@example.com") {
			t.Fatalf("expected user in body: %s", rec.Body.String())
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(uuid.NewString())

		if err := h.Get(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("malformed id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("not-a-uuid")

		if err := h.Get(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestUsersHandler_Update(t *testing.T) {
	e := echo.New()
	userID := uuid.New()

	updateContext := func(body string) (echo.Context, *httptest.ResponseRecorder) {
		req := httptest.NewRequest(http.MethodPut, "/", bytes.NewBufferString(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(userID.String())
		return c, rec
	}

	t.Run("role change", func(t *testing.T) {
		var gotRole *string
		repo := &stubUsersRepo{update: func(ctx context.Context, id uuid.UUID, email, passwordHash, role *string) (*entity.User, error) {
			gotRole = role
			return testUser(id, "user@example.com", *role), nil
		}}
		h := newUsersHandler(t, repo)

		c, rec := updateContext(`{"role":"admin"}`)
		if err := h.Update(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotRole == nil || *gotRole != "admin" {
			t.Fatalf("expected role admin to reach repository, got %v", gotRole)
		}
	})

	t.Run("password is hashed", func(t *testing.T) {
		var gotHash *string
		repo := &stubUsersRepo{update: func(ctx context.Context, id uuid.UUID, email, passwordHash, role *string) (*entity.User, error) {
			gotHash = passwordHash
			return testUser(id, "user@example.com", "user"), nil
		}}
		h := newUsersHandler(t, repo)

		c, rec := updateContext(`{"password":"s3cret"}`)
		if err := h.Update(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotHash == nil || *gotHash == "s3cret" || !strings.HasPrefix(*gotHash, "$2") {
			t.Fatalf("expected bcrypt hash to reach repository, got %v", gotHash)
		}
	})

	t.Run("invalid role", func(t *testing.T) {
		h := newUsersHandler(t, &stubUsersRepo{})
		c, rec := updateContext(`{"role":"root"}`)
		if err := h.Update(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := &stubUsersRepo{update: func(ctx context.Context, id uuid.UUID, email, passwordHash, role *string) (*entity.User, error) {
			return nil, repository.ErrEmailDuplicate
		}}
		h := newUsersHandler(t, repo)

		c, rec := updateContext(`{"email":"taken@example.com"}`)
		if err := h.Update(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		repo := &stubUsersRepo{update: func(ctx context.Context, id uuid.UUID, email, passwordHash, role *string) (*entity.User, error) {
			return nil, repository.ErrUserNotFound
		}}
		h := newUsersHandler(t, repo)

		c, rec := updateContext(`{"email":"new@example.com"}`)
		if err := h.Update(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestUsersHandler_Delete(t *testing.T) {
	e := echo.New()
	userID := uuid.New()
	repo := &stubUsersRepo{remove: func(ctx context.Context, id uuid.UUID) error {
		if id != userID {
			return repository.ErrUserNotFound
		}
		return nil
	}}
	h := newUsersHandler(t, repo)

	deleteContext := func(id string) (echo.Context, *httptest.ResponseRecorder) {
		req := httptest.NewRequest(http.MethodDelete, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(id)
		return c, rec
	}

	c, rec := deleteContext(userID.String())
	if err := h.Delete(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	c, rec = deleteContext(uuid.NewString())
	if err := h.Delete(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
