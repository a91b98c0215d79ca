// Package auth はメールアドレスとパスワードによる認証、アクセストークンの発行・検証を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/pharmacart/internal/model"
	"github.com/hitoshi/pharmacart/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	AdminEmails []string // 登録時に管理者権限を付与するメールアドレス
	BcryptCost  int      // 0の場合はbcrypt.DefaultCost
}

// Result は登録・ログイン成功時に返すユーザーとアクセストークン。
type Result struct {
	User  *model.User
	Token string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	tokens   *TokenManager
	admins   map[string]struct{}
	cost     int
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, tokens *TokenManager, config ServiceConfig) *Service {
	admins := make(map[string]struct{}, len(config.AdminEmails))
	for _, e := range config.AdminEmails {
		admins[normalizeEmail(e)] = struct{}{}
	}
	cost := config.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo: userRepo,
		tokens:   tokens,
		admins:   admins,
		cost:     cost,
	}
}

// Register はユーザーを登録し、アクセストークンを発行する。
// メールアドレスが登録済みの場合はEMAIL_TAKENのAPIErrorを返す。
func (s *Service) Register(ctx context.Context, email, password, name string) (*Result, error) {
	email = normalizeEmail(email)

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailTakenError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		Role:         model.RoleUser,
	}
	if _, ok := s.admins[email]; ok {
		user.Role = model.RoleAdmin
	}

	// 同時登録はusers_email_keyの一意制約違反としてリポジトリがEMAIL_TAKENに変換する
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	slog.Info("ユーザーを登録しました",
		slog.Int64("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return &Result{User: user, Token: token}, nil
}

// Login はメールアドレスとパスワードを検証し、アクセストークンを発行する。
// ユーザーが存在しない場合もパスワード不一致と同じINVALID_CREDENTIALSを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, model.NewInvalidCredentialsError()
		}
		return nil, fmt.Errorf("failed to compare password: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Result{User: user, Token: token}, nil
}

// VerifyToken はアクセストークンを検証し、Identityを返す。
// 不正なトークンの場合はUNAUTHORIZEDのAPIErrorを返す。
func (s *Service) VerifyToken(_ context.Context, token string) (*model.Identity, error) {
	identity, err := s.tokens.Verify(token)
	if err != nil {
		slog.Debug("トークン検証に失敗しました", slog.String("error", err.Error()))
		return nil, model.NewUnauthorizedError()
	}
	return identity, nil
}

// Me は認証済みユーザーの情報を返す。
// トークン発行後にユーザーが存在しなくなった場合はUSER_NOT_FOUNDを返す。
func (s *Service) Me(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
