package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/masaki/fleetman/internal/model"
)

type mockUserService struct {
	registerFn func(ctx context.Context, username, password string) (*model.User, error)
	listFn     func(ctx context.Context) ([]*model.User, error)
	deleteFn   func(ctx context.Context, id string) error
}

func (m *mockUserService) Register(ctx context.Context, username, password string) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, username, password)
	}
	return nil, nil
}
func (m *mockUserService) List(ctx context.Context) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}
func (m *mockUserService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// TestUserHandler_Register_Success は登録成功で201とユーザー情報が返ることを検証する。
func TestUserHandler_Register_Success(t *testing.T) {
	svc := &mockUserService{
		registerFn: func(ctx context.Context, username, password string) (*model.User, error) {
			return &model.User{ID: "user-1", Username: username}, nil
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"username":"alice","password":"s3cret"}`))
	w := httptest.NewRecorder()

	h.Register(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var body userResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.ID != "user-1" || body.Username != "alice" {
		t.Errorf("body = %+v, want ID=user-1 Username=alice", body)
	}
}

// TestUserHandler_Register_ResponseOmitsPasswordHash はレスポンスに
// パスワードハッシュが含まれないことを検証する。
func TestUserHandler_Register_ResponseOmitsPasswordHash(t *testing.T) {
	svc := &mockUserService{
		registerFn: func(ctx context.Context, username, password string) (*model.User, error) {
			return &model.User{ID: "user-1", Username: username, PasswordHash: "$2a$12$digest"}, nil
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"username":"alice","password":"s3cret"}`))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if strings.Contains(w.Body.String(), "digest") {
		t.Error("response must not contain the password hash")
	}
}

// TestUserHandler_Register_Duplicate はユーザー名重複で409が返ることを検証する。
func TestUserHandler_Register_Duplicate(t *testing.T) {
	svc := &mockUserService{
		registerFn: func(ctx context.Context, username, password string) (*model.User, error) {
			return nil, model.NewUsernameTakenError(username)
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"username":"alice","password":"s3cret"}`))
	w := httptest.NewRecorder()

	h.Register(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}

	var body apiErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Code != model.ErrCodeUsernameTaken {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUsernameTaken)
	}
}

// TestUserHandler_Register_InvalidJSON は不正なJSONで400が返ることを検証する。
func TestUserHandler_Register_InvalidJSON(t *testing.T) {
	h := NewUserHandler(&mockUserService{})

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

// TestUserHandler_List はユーザー一覧が返ることを検証する。
func TestUserHandler_List(t *testing.T) {
	svc := &mockUserService{
		listFn: func(ctx context.Context) ([]*model.User, error) {
			return []*model.User{
				{ID: "user-1", Username: "alice"},
				{ID: "user-2", Username: "bob"},
			}, nil
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body []userResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body) != 2 {
		t.Fatalf("len = %d, want 2", len(body))
	}
	if body[0].Username != "alice" || body[1].Username != "bob" {
		t.Errorf("usernames = %q, %q; want alice, bob", body[0].Username, body[1].Username)
	}
}

// TestUserHandler_Delete_Success は削除成功で204が返ることを検証する。
func TestUserHandler_Delete_Success(t *testing.T) {
	deletedID := ""
	svc := &mockUserService{
		deleteFn: func(ctx context.Context, id string) error {
			deletedID = id
			return nil
		},
	}
	h := NewUserHandler(svc)

	r := chi.NewRouter()
	r.Delete("/api/users/{id}", h.Delete)

	req := httptest.NewRequest(http.MethodDelete, "/api/users/user-1", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
	if deletedID != "user-1" {
		t.Errorf("deleted ID = %q, want %q", deletedID, "user-1")
	}
}

// TestUserHandler_Delete_NotFound は存在しないユーザーの削除で404が返ることを検証する。
func TestUserHandler_Delete_NotFound(t *testing.T) {
	svc := &mockUserService{
		deleteFn: func(ctx context.Context, id string) error {
			return model.NewUserNotFoundError(id)
		},
	}
	h := NewUserHandler(svc)

	r := chi.NewRouter()
	r.Delete("/api/users/{id}", h.Delete)

	req := httptest.NewRequest(http.MethodDelete, "/api/users/missing", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}
