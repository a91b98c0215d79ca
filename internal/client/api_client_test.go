package client

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *APIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewAPIClient(srv.URL+"/", srv.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func TestAPIClient_ListFavorites_SendsBearerToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/favorites" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q", got)
		}
		writeJSON(w, http.StatusOK, `{"success":true,"message":"","data":[]}`)
	})

	res := c.ListFavorites(context.Background(), "tok-1")
	if !res.IsOk() {
		t.Fatalf("IsOk() = false: %v", res.Error())
	}
	if res.Value() == nil || len(res.Value()) != 0 {
		t.Errorf("Value() = %#v, want empty non-nil slice", res.Value())
	}
}

func TestAPIClient_AddAndRemoveFavorite(t *testing.T) {
	var calls []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodPost:
			writeJSON(w, http.StatusCreated, `{"success":true,"message":"added","data":{"id":5,"user_id":1,"product_id":7}}`)
		case http.MethodDelete:
			writeJSON(w, http.StatusOK, `{"success":true,"message":"removed","data":null}`)
		}
	})

	add := c.AddFavorite(context.Background(), "tok", 7)
	if !add.IsOk() || add.Value().ProductID != 7 || add.Message() != "added" {
		t.Errorf("AddFavorite = %+v, %v", add.Value(), add.Error())
	}
	rm := c.RemoveFavorite(context.Background(), "tok", 7)
	if !rm.IsOk() {
		t.Errorf("RemoveFavorite err = %v", rm.Error())
	}

	want := []string{"POST /favorites/7", "DELETE /favorites/7"}
	if len(calls) != len(want) || calls[0] != want[0] || calls[1] != want[1] {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestAPIClient_Login_PostsCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("ログインリクエストにAuthorizationを付けてはならない")
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body["email"] != "ana@example.com" || body["password"] != "pw" {
			t.Errorf("body = %v", body)
		}
		writeJSON(w, http.StatusOK, `{"success":true,"message":"","data":{"token":"t","user":{"id":1,"email":"ana@example.com","role":"user"}}}`)
	})

	res := c.Login(context.Background(), "ana@example.com", "pw")
	if !res.IsOk() {
		t.Fatalf("Login err = %v", res.Error())
	}
	if res.Value().Token != "t" || res.Value().User.ID != 1 {
		t.Errorf("session = %+v", res.Value())
	}
}

func TestAPIClient_ListProducts_CategoryQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("category"); got != "îngrijire corp" {
			t.Errorf("category = %q", got)
		}
		writeJSON(w, http.StatusOK, `{"success":true,"message":"","data":[{"id":1,"name":"Cremă"}]}`)
	})

	res := c.ListProducts(context.Background(), "îngrijire corp")
	if !res.IsOk() || len(res.Value()) != 1 || res.Value()[0].Name != "Cremă" {
		t.Errorf("ListProducts = %+v, %v", res.Value(), res.Error())
	}
}

func TestAPIClient_FailureEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"success":false,"message":"商品が見つかりません","data":{"code":"PRODUCT_NOT_FOUND","category":"product","action":""}}`)
	})

	res := c.AddFavorite(context.Background(), "tok", 99)
	if res.IsOk() {
		t.Fatal("IsOk() = true, want false")
	}
	if res.Error().Kind != KindNotFound || res.Error().Code != "PRODUCT_NOT_FOUND" {
		t.Errorf("err = %+v", res.Error())
	}
}

func TestAPIClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewAPIClient(url, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	res := c.ListFavorites(context.Background(), "tok")
	if res.IsOk() {
		t.Fatal("IsOk() = true, want false")
	}
	if res.Error().Kind != KindTransport {
		t.Errorf("Kind = %v, want %v", res.Error().Kind, KindTransport)
	}
}
