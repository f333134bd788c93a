package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-directory-service/internal/adapter/gin/middleware"
	usecase "user-directory-service/internal/usecase/user"
	pkgerrors "user-directory-service/pkg/errors"
)

// MockUserUsecase is a mock implementation of user.UserUsecase
type MockUserUsecase struct {
	mock.Mock
}

func (m *MockUserUsecase) GetUser(ctx context.Context, req usecase.GetUserRequest) (*usecase.GetUserResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.GetUserResponse), args.Error(1)
}

func (m *MockUserUsecase) CreateUser(ctx context.Context, req usecase.CreateUserRequest) (*usecase.CreateUserResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.CreateUserResponse), args.Error(1)
}

func (m *MockUserUsecase) UpdateUser(ctx context.Context, req usecase.UpdateUserRequest) (*usecase.UpdateUserResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.UpdateUserResponse), args.Error(1)
}

func (m *MockUserUsecase) DeleteUser(ctx context.Context, req usecase.DeleteUserRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockUserUsecase) UpdateActivity(ctx context.Context, req usecase.UpdateActivityRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockUserUsecase) ListUsers(ctx context.Context, req usecase.ListUsersRequest) (*usecase.ListUsersResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ListUsersResponse), args.Error(1)
}

func setupTest(t *testing.T) (*gin.Engine, *UserHandler, *MockUserUsecase) {
	gin.SetMode(gin.TestMode)
	mockUsecase := new(MockUserUsecase)
	handler := NewUserHandler(mockUsecase, zaptest.NewLogger(t))
	return gin.New(), handler, mockUsecase
}

// asCaller marks the request as authenticated for uid, as the auth middleware would.
func asCaller(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, uid)
		c.Next()
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func serve(r *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, handler, mockUsecase := setupTest(t)
		r.GET("/fetch-user-data/:userId", handler.GetUser)

		mockUsecase.On("GetUser", mock.Anything, usecase.GetUserRequest{ID: "abc"}).
			Return(&usecase.GetUserResponse{User: usecase.User{ID: "abc", Name: "Ann"}}, nil)

		w := serve(r, http.MethodGet, "/fetch-user-data/abc", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decode[UserEnvelope](t, w)
		assert.Equal(t, "abc", resp.User.ID)
		assert.Equal(t, "Ann", resp.User.Name)
	})

	t.Run("Falls back to caller", func(t *testing.T) {
		r, handler, mockUsecase := setupTest(t)
		r.GET("/fetch-user-data", asCaller("me"), handler.GetUser)

		mockUsecase.On("GetUser", mock.Anything, usecase.GetUserRequest{ID: "me"}).
			Return(&usecase.GetUserResponse{User: usecase.User{ID: "me"}}, nil)

		w := serve(r, http.MethodGet, "/fetch-user-data", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		mockUsecase.AssertExpectations(t)
	})

	t.Run("No ID", func(t *testing.T) {
		r, handler, mockUsecase := setupTest(t)
		r.GET("/fetch-user-data", handler.GetUser)

		mockUsecase.On("GetUser", mock.Anything, usecase.GetUserRequest{ID: ""}).
			Return(nil, pkgerrors.NewValidationError("id", usecase.MsgUserIDRequired))

		w := serve(r, http.MethodGet, "/fetch-user-data", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "User ID is required", decode[ErrorResponse](t, w).Error)
	})

	t.Run("Not Found", func(t *testing.T) {
		r, handler, mockUsecase := setupTest(t)
		r.GET("/fetch-user-data/:userId", handler.GetUser)

		mockUsecase.On("GetUser", mock.Anything, usecase.GetUserRequest{ID: "ghost"}).
			Return(nil, pkgerrors.NewNotFoundError("user", usecase.MsgUserNotFound))

		w := serve(r, http.MethodGet, "/fetch-user-data/ghost", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "User not found", decode[ErrorResponse](t, w).Error)
	})

	t.Run("Internal error is generic", func(t *testing.T) {
		r, handler, mockUsecase := setupTest(t)
		r.GET("/fetch-user-data/:userId", handler.GetUser)

		mockUsecase.On("GetUser", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: refused"))

		w := serve(r, http.MethodGet, "/fetch-user-data/abc", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Internal server error", decode[ErrorResponse](t, w).Error)
	})
}

func TestUpdateUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, handler, mockUsecase := setupTest(t)
		r.PUT("/update-user-data/:userId", handler.UpdateUser)

		mockUsecase.On("UpdateUser", mock.Anything, mock.MatchedBy(func(req usecase.UpdateUserRequest) bool {
			return req.ID == "abc" && req.Name != nil && *req.Name == "New" &&
				req.NumberOfRents != nil && *req.NumberOfRents == 0 && req.Email == nil
		})).Return(&usecase.UpdateUserResponse{User: usecase.User{ID: "abc", Name: "New"}}, nil)

		w := serve(r, http.MethodPut, "/update-user-data/abc", []byte(`{"name":"New","numberOfRents":0}`))

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decode[MessageResponse](t, w)
		assert.Equal(t, "User data updated successfully", resp.Message)
		assert.Equal(t, "New", resp.User.Name)
	})

	t.Run("Empty body", func(t *testing.T) {
		r, handler, mockUsecase := setupTest(t)
		r.PUT("/update-user-data/:userId", handler.UpdateUser)

		mockUsecase.On("UpdateUser", mock.Anything, usecase.UpdateUserRequest{ID: "abc"}).
			Return(nil, pkgerrors.NewValidationError("", usecase.MsgNoUpdateData))

		for _, body := range [][]byte{nil, []byte(`{}`)} {
			w := serve(r, http.MethodPut, "/update-user-data/abc", body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "No data provided for update", decode[ErrorResponse](t, w).Error)
		}
	})

	t.Run("Malformed body", func(t *testing.T) {
		r, handler, mockUsecase := setupTest(t)
		r.PUT("/update-user-data/:userId", handler.UpdateUser)

		w := serve(r, http.MethodPut, "/update-user-data/abc", []byte(`{"name":`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, MsgInvalidBody, decode[ErrorResponse](t, w).Error)
		mockUsecase.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)
	})

	t.Run("Not Found", func(t *testing.T) {
		r, handler, mockUsecase := setupTest(t)
		r.PUT("/update-user-data", asCaller("me"), handler.UpdateUser)

		mockUsecase.On("UpdateUser", mock.Anything, mock.MatchedBy(func(req usecase.UpdateUserRequest) bool {
			return req.ID == "me"
		})).Return(nil, pkgerrors.NewNotFoundError("user", usecase.MsgUserNotFound))

		w := serve(r, http.MethodPut, "/update-user-data", []byte(`{"email":"a@b.co"}`))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUpdateActivity(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, handler, mockUsecase := setupTest(t)
		r.POST("/update-activity", asCaller("me"), handler.UpdateActivity)

		mockUsecase.On("UpdateActivity", mock.Anything, usecase.UpdateActivityRequest{UserID: "me"}).Return(nil)

		w := serve(r, http.MethodPost, "/update-activity", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decode[SuccessResponse](t, w).Success)
	})

	t.Run("Anonymous", func(t *testing.T) {
		r, handler, mockUsecase := setupTest(t)
		r.POST("/update-activity", handler.UpdateActivity)

		w := serve(r, http.MethodPost, "/update-activity", nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockUsecase.AssertNotCalled(t, "UpdateActivity", mock.Anything, mock.Anything)
	})
}

func TestListUsers(t *testing.T) {
	t.Run("Passes query through", func(t *testing.T) {
		r, handler, mockUsecase := setupTest(t)
		r.GET("/fetch-all-users", handler.ListUsers)

		score := 4.2
		mockUsecase.On("ListUsers", mock.Anything, usecase.ListUsersRequest{Limit: 2, Cursor: "c1", SortBy: "potential"}).
			Return(&usecase.ListUsersResponse{
				Users:      []usecase.User{{ID: "a", PotentialScore: &score}, {ID: "b", PotentialScore: &score}},
				HasMore:    true,
				NextCursor: "b",
			}, nil)

		w := serve(r, http.MethodGet, "/fetch-all-users?limit=2&lastDocId=c1&sortBy=potential", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decode[ListUsersResponse](t, w)
		assert.Len(t, resp.Users, 2)
		assert.Equal(t, 4.2, *resp.Users[0].PotentialScore)
		assert.True(t, resp.Pagination.HasMore)
		require.NotNil(t, resp.Pagination.LastDocID)
		assert.Equal(t, "b", *resp.Pagination.LastDocID)
	})

	t.Run("Empty page has null cursor", func(t *testing.T) {
		r, handler, mockUsecase := setupTest(t)
		r.GET("/fetch-all-users", handler.ListUsers)

		mockUsecase.On("ListUsers", mock.Anything, usecase.ListUsersRequest{Limit: 0}).
			Return(&usecase.ListUsersResponse{}, nil)

		w := serve(r, http.MethodGet, "/fetch-all-users?limit=abc", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"users":[],"pagination":{"hasMore":false,"lastDocId":null}}`, w.Body.String())
	})

	t.Run("Invalid sort", func(t *testing.T) {
		r, handler, mockUsecase := setupTest(t)
		r.GET("/fetch-all-users", handler.ListUsers)

		mockUsecase.On("ListUsers", mock.Anything, mock.Anything).
			Return(nil, pkgerrors.NewValidationError("sortBy", `Invalid sortBy "name"`))

		w := serve(r, http.MethodGet, "/fetch-all-users?sortBy=name", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, `Invalid sortBy "name"`, decode[ErrorResponse](t, w).Error)
	})
}

func TestCreateUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, handler, mockUsecase := setupTest(t)
		r.POST("/create-user", handler.CreateUser)

		mockUsecase.On("CreateUser", mock.Anything, usecase.CreateUserRequest{Name: "Ann", Email: "ann@example.com", NumberOfRents: 2}).
			Return(&usecase.CreateUserResponse{User: usecase.User{ID: "new", Name: "Ann"}}, nil)

		w := serve(r, http.MethodPost, "/create-user", []byte(`{"name":"Ann","email":"ann@example.com","numberOfRents":2}`))

		assert.Equal(t, http.StatusCreated, w.Code)
		resp := decode[MessageResponse](t, w)
		assert.Equal(t, MsgUserCreated, resp.Message)
		assert.Equal(t, "new", resp.User.ID)
	})

	t.Run("Invalid Request Body", func(t *testing.T) {
		r, handler, _ := setupTest(t)
		r.POST("/create-user", handler.CreateUser)

		w := serve(r, http.MethodPost, "/create-user", []byte("invalid json"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Validation Error", func(t *testing.T) {
		r, handler, mockUsecase := setupTest(t)
		r.POST("/create-user", handler.CreateUser)

		mockUsecase.On("CreateUser", mock.Anything, mock.Anything).
			Return(nil, pkgerrors.NewValidationError("", "email must be a valid email"))

		w := serve(r, http.MethodPost, "/create-user", []byte(`{"name":"Ann","email":"nope"}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "email must be a valid email", decode[ErrorResponse](t, w).Error)
	})
}

func TestDeleteUser(t *testing.T) {
	r, handler, mockUsecase := setupTest(t)
	r.DELETE("/delete-user/:userId", handler.DeleteUser)

	mockUsecase.On("DeleteUser", mock.Anything, usecase.DeleteUserRequest{ID: "abc"}).Return(nil)
	mockUsecase.On("DeleteUser", mock.Anything, usecase.DeleteUserRequest{ID: "ghost"}).
		Return(pkgerrors.NewNotFoundError("user", usecase.MsgUserNotFound))

	w := serve(r, http.MethodDelete, "/delete-user/abc", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[SuccessResponse](t, w).Success)

	w = serve(r, http.MethodDelete, "/delete-user/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
