// Package favorite はユーザーごとのお気に入り商品の一覧・追加・解除を提供する。
//
// 操作対象のユーザーは常に検証済みトークンから得たIDであり、
// リクエストの入力値からは決定しない。
package favorite

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hitoshi/pharmacart/internal/events"
	"github.com/hitoshi/pharmacart/internal/model"
	"github.com/hitoshi/pharmacart/internal/repository"
)

// 操作種別（メトリクスのopラベル）
const (
	OpList   = "list"
	OpAdd    = "add"
	OpRemove = "remove"
)

// 操作結果（メトリクスのresultラベル）
const (
	ResultOK           = "ok"
	ResultCreated      = "created"
	ResultExisting     = "existing"
	ResultRemoved      = "removed"
	ResultAbsent       = "absent"
	ResultInvalid      = "invalid"
	ResultNotFound     = "not_found"
	ResultUnauthorized = "unauthorized"
	ResultError        = "error"
)

// ProductFinder は商品の存在確認に使う参照インターフェース。
// 存在しない場合は(nil, nil)を返す。
type ProductFinder interface {
	FindByID(ctx context.Context, id int64) (*model.Product, error)
}

// Recorder はお気に入り操作の結果を記録する。
type Recorder interface {
	RecordFavoriteOp(op, result string)
}

type nopRecorder struct{}

func (nopRecorder) RecordFavoriteOp(string, string) {}

// Service はお気に入りに関するビジネスロジックを提供する。
type Service struct {
	favorites repository.FavoriteRepository
	products  ProductFinder
	publisher events.Publisher
	recorder  Recorder
	now       func() time.Time
}

// Option はServiceの任意設定。
type Option func(*Service)

// WithPublisher はイベント発行先を設定する。
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithRecorder はメトリクスの記録先を設定する。
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// NewService はServiceを生成する。
func NewService(favorites repository.FavoriteRepository, products ProductFinder, opts ...Option) *Service {
	s := &Service{
		favorites: favorites,
		products:  products,
		publisher: events.NopPublisher{},
		recorder:  nopRecorder{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List はユーザーのお気に入り商品IDを登録順で返す。
// お気に入りがない場合は空スライスを返す。
func (s *Service) List(ctx context.Context, userID int64) ([]int64, error) {
	if userID <= 0 {
		s.recorder.RecordFavoriteOp(OpList, ResultUnauthorized)
		return nil, model.NewUnauthorizedError()
	}

	ids, err := s.favorites.ListProductIDsByUser(ctx, userID)
	if err != nil {
		s.recorder.RecordFavoriteOp(OpList, ResultError)
		return nil, err
	}
	if ids == nil {
		ids = []int64{}
	}

	s.recorder.RecordFavoriteOp(OpList, ResultOK)
	return ids, nil
}

// Add は商品をお気に入りに追加する。
// 既に追加済みの場合は既存の関係とcreated=falseを返し、エラーにしない。
// 商品IDが不正な場合はストレージに触れずにINVALID_PRODUCT_IDを返す。
func (s *Service) Add(ctx context.Context, userID int64, rawProductID string) (*model.Favorite, bool, error) {
	if userID <= 0 {
		s.recorder.RecordFavoriteOp(OpAdd, ResultUnauthorized)
		return nil, false, model.NewUnauthorizedError()
	}

	productID, err := model.ParseProductID(rawProductID)
	if err != nil {
		s.recorder.RecordFavoriteOp(OpAdd, ResultInvalid)
		return nil, false, err
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		s.recorder.RecordFavoriteOp(OpAdd, ResultError)
		return nil, false, err
	}
	if product == nil {
		s.recorder.RecordFavoriteOp(OpAdd, ResultNotFound)
		return nil, false, model.NewProductNotFoundError(productID)
	}

	// 存在確認後に商品が削除された場合は外部キー違反としてPRODUCT_NOT_FOUNDが返る
	fav, created, err := s.favorites.Insert(ctx, userID, productID)
	if err != nil {
		s.recorder.RecordFavoriteOp(OpAdd, resultFor(err))
		return nil, false, err
	}

	if !created {
		s.recorder.RecordFavoriteOp(OpAdd, ResultExisting)
		return fav, false, nil
	}

	s.recorder.RecordFavoriteOp(OpAdd, ResultCreated)
	s.publish(ctx, events.TypeFavoriteAdded, userID, productID)
	return fav, true, nil
}

// Remove は商品をお気に入りから解除する。
// お気に入りに存在しない場合も成功として扱う。
func (s *Service) Remove(ctx context.Context, userID int64, rawProductID string) error {
	if userID <= 0 {
		s.recorder.RecordFavoriteOp(OpRemove, ResultUnauthorized)
		return model.NewUnauthorizedError()
	}

	productID, err := model.ParseProductID(rawProductID)
	if err != nil {
		s.recorder.RecordFavoriteOp(OpRemove, ResultInvalid)
		return err
	}

	n, err := s.favorites.Delete(ctx, userID, productID)
	if err != nil {
		s.recorder.RecordFavoriteOp(OpRemove, ResultError)
		return err
	}

	if n == 0 {
		s.recorder.RecordFavoriteOp(OpRemove, ResultAbsent)
		return nil
	}

	s.recorder.RecordFavoriteOp(OpRemove, ResultRemoved)
	s.publish(ctx, events.TypeFavoriteRemoved, userID, productID)
	return nil
}

// publish はイベントを発行する。失敗してもリクエストは失敗させずログのみ残す。
func (s *Service) publish(ctx context.Context, eventType string, userID, productID int64) {
	err := s.publisher.PublishFavorite(ctx, events.FavoriteEvent{
		EventType:  eventType,
		UserID:     userID,
		ProductID:  productID,
		OccurredAt: s.now(),
	})
	if err != nil {
		slog.Warn("お気に入りイベントの発行に失敗しました",
			slog.String("event_type", eventType),
			slog.Int64("user_id", userID),
			slog.Int64("product_id", productID),
			slog.String("error", err.Error()),
		)
	}
}

func resultFor(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeProductNotFound {
		return ResultNotFound
	}
	return ResultError
}
