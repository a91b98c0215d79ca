package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/pharmacart/internal/model"
)

// --- モック定義 ---

type mockTokenVerifier struct {
	identities map[string]*model.Identity
	calls      int
}

func (m *mockTokenVerifier) VerifyToken(_ context.Context, token string) (*model.Identity, error) {
	m.calls++
	if id, ok := m.identities[token]; ok {
		return id, nil
	}
	return nil, model.NewUnauthorizedError()
}

// compile-time interface check
var _ TokenVerifier = (*mockTokenVerifier)(nil)

func newVerifier() *mockTokenVerifier {
	return &mockTokenVerifier{identities: map[string]*model.Identity{
		"user-token":  {UserID: 10, Role: model.RoleUser},
		"admin-token": {UserID: 1, Role: model.RoleAdmin},
	}}
}

func TestAuthMiddleware_ValidTokenInjectsIdentity(t *testing.T) {
	var captured int64
	handler := NewAuthMiddleware(newVerifier())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := UserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("UserIDFromContext failed: %v", err)
		}
		captured = id
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/favorites", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if captured != 10 {
		t.Errorf("userID = %d, want %d", captured, 10)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "ヘッダーなし", header: ""},
		{name: "Bearer以外のスキーム", header: "Basic dXNlcjpwYXNz"},
		{name: "トークンが空", header: "Bearer "},
		{name: "不正なトークン", header: "Bearer forged"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := NewAuthMiddleware(newVerifier())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/favorites", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			if called {
				t.Error("未認証リクエストが後続ハンドラーに渡された")
			}
			body := decodeErrorEnvelope(t, w)
			if body.Data.Code != model.ErrCodeUnauthorized {
				t.Errorf("data.code = %q, want %q", body.Data.Code, model.ErrCodeUnauthorized)
			}
		})
	}
}

func TestAuthMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	handler := NewAuthMiddleware(newVerifier())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/favorites", nil)
	req.Header.Set("Authorization", "bearer user-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantUserID int64
	}{
		{name: "トークンなしは未認証で通す", header: "", wantUserID: 0},
		{name: "不正なトークンも未認証で通す", header: "Bearer forged", wantUserID: 0},
		{name: "有効なトークンはIdentityを注入", header: "Bearer user-token", wantUserID: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got int64
			handler := NewOptionalAuthMiddleware(newVerifier())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = UserIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/products/7", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
			}
			if got != tt.wantUserID {
				t.Errorf("userID = %d, want %d", got, tt.wantUserID)
			}
		})
	}
}

func TestRequireAdminMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{name: "管理者は通過", token: "admin-token", wantStatus: http.StatusOK},
		{name: "一般ユーザーは403", token: "user-token", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := NewAuthMiddleware(newVerifier())(NewRequireAdminMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})))

			req := httptest.NewRequest(http.MethodPost, "/products", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			w := httptest.NewRecorder()

			chain.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequireAdminMiddleware_WithoutIdentity(t *testing.T) {
	handler := NewRequireAdminMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/products/1", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestUserIDFromContext_Empty(t *testing.T) {
	if _, err := UserIDFromContext(context.Background()); !errors.Is(err, ErrNoIdentity) {
		t.Errorf("err = %v, want ErrNoIdentity", err)
	}
}

func TestContextWithUserID_RoundTrip(t *testing.T) {
	ctx := ContextWithUserID(context.Background(), 55)

	identity, err := IdentityFromContext(ctx)
	if err != nil {
		t.Fatalf("IdentityFromContext failed: %v", err)
	}
	if identity.UserID != 55 || identity.Role != model.RoleUser {
		t.Errorf("identity = %+v", identity)
	}
}
