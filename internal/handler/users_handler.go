package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/gatesweb/emlak-directory/internal/dto"
	"github.com/gatesweb/emlak-directory/internal/entity"
	"github.com/gatesweb/emlak-directory/internal/repository"
	"github.com/gatesweb/emlak-directory/internal/service"
)

// UsersHandler exposes the admin user-management endpoints.
type UsersHandler struct {
	authService *service.AuthService
}

// NewUsersHandler constructs a UsersHandler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{authService: authService}
}

func userResponse(u *entity.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func userIDParam(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

// List handles GET /admin/users requests.
func (h *UsersHandler) List(c echo.Context) error {
	users, err := h.authService.Users(c.Request().Context())
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to list users")
	}

	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, userResponse(&users[i]))
	}

	return Success(c, http.StatusOK, "ok", map[string]any{
		"count": len(out),
		"users": out,
	})
}

// Get handles GET /admin/users/:id requests.
func (h *UsersHandler) Get(c echo.Context) error {
	id, err := userIDParam(c)
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid user id")
	}

	user, err := h.authService.User(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return Error(c, http.StatusNotFound, "user not found")
		}
		return Error(c, http.StatusInternalServerError, "failed to fetch user")
	}

	return Success(c, http.StatusOK, "ok", userResponse(user))
}

// Update handles PUT /admin/users/:id requests.
func (h *UsersHandler) Update(c echo.Context) error {
	id, err := userIDParam(c)
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid user id")
	}

	var req dto.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	if req.Password != nil && *req.Password == "" {
		return Error(c, http.StatusBadRequest, "password must not be empty")
	}

	user, err := h.authService.UpdateUser(c.Request().Context(), id, req.Email, req.Password, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRole):
			return Error(c, http.StatusBadRequest, "role must be user or admin")
		case errors.Is(err, service.ErrEmailAlreadyExists):
			return Error(c, http.StatusConflict, "email already exists")
		case errors.Is(err, repository.ErrUserNotFound):
			return Error(c, http.StatusNotFound, "user not found")
		default:
			return Error(c, http.StatusInternalServerError, "failed to update user")
		}
	}

	return Success(c, http.StatusOK, "user updated", userResponse(user))
}

// Delete handles DELETE /admin/users/:id requests.
func (h *UsersHandler) Delete(c echo.Context) error {
	id, err := userIDParam(c)
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid user id")
	}

	if err := h.authService.DeleteUser(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return Error(c, http.StatusNotFound, "user not found")
		}
		return Error(c, http.StatusInternalServerError, "failed to delete user")
	}

	return Success(c, http.StatusOK, "user deleted", nil)
}
