package client

import (
	"context"
	"log/slog"
	"sync"
)

// API はStateが使うAPI呼び出し。*APIClientが満たす。
type API interface {
	FavoritesAPI
	CheckToken(ctx context.Context, token string) Result[User]
	Login(ctx context.Context, email, password string) Result[Session]
}

// TokenStore は再起動をまたいでトークンを保持する。
type TokenStore interface {
	LoadToken() (string, error)
	SaveToken(token string) error
	ClearToken() error
}

// State はアプリケーションの存続期間にわたる状態（トークン、ユーザー、お気に入り）。
// アプリケーションが生成し、各画面に渡す。
type State struct {
	api    API
	tokens TokenStore
	logger *slog.Logger

	// Favorites は画面が参照するお気に入りの写し。
	Favorites *FavoritesCache

	mu    sync.RWMutex
	token string
	user  *User
}

// StateOption はStateの任意設定。
type StateOption func(*State)

// WithTokenStore はトークンの永続化先を設定する。
func WithTokenStore(store TokenStore) StateOption {
	return func(s *State) { s.tokens = store }
}

// WithLogger はロガーを設定する。
func WithLogger(logger *slog.Logger) StateOption {
	return func(s *State) { s.logger = logger }
}

// NewState はログアウト状態のStateを生成する。
func NewState(api API, notifier Notifier, navigator Navigator, opts ...StateOption) *State {
	s := &State{
		api:    api,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Favorites = NewFavoritesCache(api, notifier, navigator)
	return s
}

// Token は現在のアクセストークンを返す。未ログインの場合は空文字。
func (s *State) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User はログイン中のユーザーを返す。未ログインの場合はnil。
func (s *State) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsAuthenticated はログイン中かどうかを返す。
func (s *State) IsAuthenticated() bool {
	return s.Token() != ""
}

// Restore はアプリ起動時に保存済みトークンを検証し、お気に入りを読み込む。
// トークンがない、または無効な場合はログアウト状態（空のお気に入り）になる。
func (s *State) Restore(ctx context.Context) error {
	token := ""
	if s.tokens != nil {
		t, err := s.tokens.LoadToken()
		if err != nil {
			s.logger.Warn("保存済みトークンの読み込みに失敗しました", slog.String("error", err.Error()))
		}
		token = t
	}
	if token == "" {
		s.Logout()
		return nil
	}

	res := s.api.CheckToken(ctx, token)
	if !res.IsOk() {
		if res.Error().Kind == KindUnauthorized || res.Error().Kind == KindNotFound {
			s.Logout()
			return nil
		}
		return res.Error()
	}

	user := res.Value()
	s.setSession(token, &user)
	return s.Favorites.Load(ctx, token)
}

// Login はログインし、お気に入りを読み込む。
func (s *State) Login(ctx context.Context, email, password string) error {
	res := s.api.Login(ctx, email, password)
	if !res.IsOk() {
		return res.Error()
	}

	session := res.Value()
	s.setSession(session.Token, &session.User)
	if s.tokens != nil {
		if err := s.tokens.SaveToken(session.Token); err != nil {
			s.logger.Warn("トークンの保存に失敗しました", slog.String("error", err.Error()))
		}
	}
	return s.Favorites.Load(ctx, session.Token)
}

// Logout はトークンとユーザーを破棄し、お気に入りを空にする。
func (s *State) Logout() {
	s.setSession("", nil)
	if s.tokens != nil {
		if err := s.tokens.ClearToken(); err != nil {
			s.logger.Warn("トークンの削除に失敗しました", slog.String("error", err.Error()))
		}
	}
	s.Favorites.Reset()
}

// ToggleFavorite は現在のトークンで商品のお気に入り状態を反転する。
func (s *State) ToggleFavorite(ctx context.Context, productID int64) (bool, error) {
	return s.Favorites.Toggle(ctx, s.Token(), productID)
}

func (s *State) setSession(token string, user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
}
