package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-directory-service/internal/adapter/gin/middleware"
	"user-directory-service/internal/usecase/user"
	apperrors "user-directory-service/pkg/errors"
	"user-directory-service/pkg/logger"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc  user.UserUsecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.UserUsecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// UserEnvelope wraps a single user
type UserEnvelope struct {
	User user.User `json:"user"`
}

// MessageResponse carries a user and a confirmation message
type MessageResponse struct {
	Message string    `json:"message"`
	User    user.User `json:"user"`
}

// SuccessResponse acknowledges an operation without payload
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ListUsersResponse represents the HTTP response for listing users
type ListUsersResponse struct {
	Users      []user.User `json:"users"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination tells the client how to fetch the next page.
// LastDocID is null when the page is empty.
type Pagination struct {
	HasMore   bool    `json:"hasMore"`
	LastDocID *string `json:"lastDocId"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Response messages.
const (
	MsgUserUpdated   = "User data updated successfully"
	MsgUserCreated   = "User created successfully"
	MsgInvalidBody   = "Invalid request body"
	MsgInternalError = "Internal server error"
)

// GetUser handles GET /fetch-user-data/:userId and GET /fetch-user-data.
// Without a path ID the authenticated caller is fetched.
func (h *UserHandler) GetUser(c *gin.Context) {
	id := h.targetID(c)

	resp, err := h.uc.GetUser(c.Request.Context(), user.GetUserRequest{ID: id})
	if err != nil {
		h.handleError(c, "GetUser", err)
		return
	}

	c.JSON(http.StatusOK, UserEnvelope{User: resp.User})
}

// UpdateUser handles PUT /update-user-data/:userId and PUT /update-user-data.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req user.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.WithContext(c.Request.Context(), h.log).Warn("Invalid update user request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: MsgInvalidBody})
		return
	}
	req.ID = h.targetID(c)

	resp, err := h.uc.UpdateUser(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, "UpdateUser", err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: MsgUserUpdated, User: resp.User})
}

// UpdateActivity handles POST /update-activity for the authenticated caller.
func (h *UserHandler) UpdateActivity(c *gin.Context) {
	uid := middleware.UserID(c)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.uc.UpdateActivity(c.Request.Context(), user.UpdateActivityRequest{UserID: uid}); err != nil {
		h.handleError(c, "UpdateActivity", err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// ListUsers handles GET /fetch-all-users?limit&lastDocId&sortBy
func (h *UserHandler) ListUsers(c *gin.Context) {
	// unparsable limits become 0, which selects the default page size
	limit, _ := strconv.Atoi(c.Query("limit"))

	resp, err := h.uc.ListUsers(c.Request.Context(), user.ListUsersRequest{
		Limit:  limit,
		Cursor: c.Query("lastDocId"),
		SortBy: c.Query("sortBy"),
	})
	if err != nil {
		h.handleError(c, "ListUsers", err)
		return
	}

	users := resp.Users
	if users == nil {
		users = []user.User{}
	}

	pagination := Pagination{HasMore: resp.HasMore}
	if resp.NextCursor != "" {
		next := resp.NextCursor
		pagination.LastDocID = &next
	}

	c.JSON(http.StatusOK, ListUsersResponse{Users: users, Pagination: pagination})
}

// CreateUser handles POST /create-user
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req user.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WithContext(c.Request.Context(), h.log).Warn("Invalid create user request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: MsgInvalidBody})
		return
	}

	resp, err := h.uc.CreateUser(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, "CreateUser", err)
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{Message: MsgUserCreated, User: resp.User})
}

// DeleteUser handles DELETE /delete-user/:userId
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.uc.DeleteUser(c.Request.Context(), user.DeleteUserRequest{ID: c.Param("userId")}); err != nil {
		h.handleError(c, "DeleteUser", err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// targetID prefers the path parameter and falls back to the caller's own ID.
func (h *UserHandler) targetID(c *gin.Context) string {
	if id := c.Param("userId"); id != "" {
		return id
	}
	return middleware.UserID(c)
}

// handleError converts usecase errors to HTTP responses. Only typed errors
// expose their message; everything else is reported as a generic 500.
func (h *UserHandler) handleError(c *gin.Context, op string, err error) {
	log := logger.WithContext(c.Request.Context(), h.log)
	status := apperrors.StatusOf(err)

	if status >= http.StatusInternalServerError {
		log.Error(op+" failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: MsgInternalError})
		return
	}

	log.Info(op+" rejected", zap.Int("status", status), zap.Error(err))
	c.JSON(status, ErrorResponse{Error: publicMessage(err)})
}

func publicMessage(err error) string {
	var (
		validationErr   *apperrors.ValidationError
		notFoundErr     *apperrors.NotFoundError
		unauthorizedErr *apperrors.UnauthorizedError
	)
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Message
	case errors.As(err, &notFoundErr):
		return notFoundErr.Error()
	case errors.As(err, &unauthorizedErr):
		return unauthorizedErr.Message
	default:
		return err.Error()
	}
}
