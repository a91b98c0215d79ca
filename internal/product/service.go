// Package product は商品カタログの参照と管理者による商品管理を提供する。
package product

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/pharmacart/internal/model"
	"github.com/hitoshi/pharmacart/internal/repository"
	"github.com/hitoshi/pharmacart/internal/security"
)

// FavoriteChecker は商品詳細のお気に入り状態を判定する。
type FavoriteChecker interface {
	Exists(ctx context.Context, userID, productID int64) (bool, error)
}

// Input は商品の作成・更新時の入力値。
type Input struct {
	Name        string
	Description string
	Price       float64
	Category    string
	Stock       int
	Image       string
}

// Detail は商品詳細の応答。IsFavoriteは認証済みの場合のみ設定される。
type Detail struct {
	Product    *model.Product
	IsFavorite *bool
}

// Service は商品に関するビジネスロジックを提供する。
type Service struct {
	repo      repository.ProductRepository
	favorites FavoriteChecker
	sanitizer security.TextSanitizer
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(repo repository.ProductRepository, favorites FavoriteChecker, sanitizer security.TextSanitizer) *Service {
	return &Service{
		repo:      repo,
		favorites: favorites,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// List は商品一覧を返す。
func (s *Service) List(ctx context.Context, filter model.ProductFilter) ([]*model.Product, error) {
	return s.repo.List(ctx, filter)
}

// Get は商品詳細を返す。userIDが0の場合（未認証）はお気に入り状態を判定しない。
func (s *Service) Get(ctx context.Context, id, userID int64) (*Detail, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, model.NewProductNotFoundError(id)
	}

	detail := &Detail{Product: p}
	if userID > 0 && s.favorites != nil {
		fav, err := s.favorites.Exists(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		detail.IsFavorite = &fav
	}
	return detail, nil
}

// Create は商品を登録する。
func (s *Service) Create(ctx context.Context, in Input) (*model.Product, error) {
	p := s.build(in)
	if err := s.validate(p); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	slog.Info("商品を登録しました", slog.Int64("product_id", p.ID))
	return p, nil
}

// Update は商品情報を更新する。対象が存在しない場合はPRODUCT_NOT_FOUNDを返す。
func (s *Service) Update(ctx context.Context, id int64, in Input) (*model.Product, error) {
	p := s.build(in)
	p.ID = id
	if err := s.validate(p); err != nil {
		return nil, err
	}

	ok, err := s.repo.Update(ctx, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.NewProductNotFoundError(id)
	}
	return p, nil
}

// Delete は商品を論理削除する。対象が存在しない場合はPRODUCT_NOT_FOUNDを返す。
// 論理削除された商品はお気に入り一覧から除外される。
func (s *Service) Delete(ctx context.Context, id int64) error {
	ok, err := s.repo.SoftDelete(ctx, id, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return model.NewProductNotFoundError(id)
	}

	slog.Info("商品を削除しました", slog.Int64("product_id", id))
	return nil
}

func (s *Service) build(in Input) *model.Product {
	return &model.Product{
		Name:        s.sanitizer.PlainText(in.Name),
		Description: s.sanitizer.RichText(in.Description),
		Price:       in.Price,
		Category:    s.sanitizer.PlainText(in.Category),
		Stock:       in.Stock,
		Image:       in.Image,
	}
}

// validate はサニタイズ後に空になった必須項目を検出する。
// 形式の検証はハンドラーで行う。
func (s *Service) validate(p *model.Product) error {
	var fields []string
	if p.Name == "" {
		fields = append(fields, "name")
	}
	if p.Category == "" {
		fields = append(fields, "category")
	}
	if p.Price < 0 {
		fields = append(fields, "price")
	}
	if p.Stock < 0 {
		fields = append(fields, "stock")
	}
	if len(fields) > 0 {
		return model.NewValidationFailedError(fields)
	}
	return nil
}

