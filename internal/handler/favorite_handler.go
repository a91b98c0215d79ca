package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/pharmacart/internal/middleware"
	"github.com/hitoshi/pharmacart/internal/model"
)

// FavoriteServiceInterface はお気に入りハンドラーが必要とするサービスインターフェース。
type FavoriteServiceInterface interface {
	// List はユーザーのお気に入り商品IDを登録順で返す。
	List(ctx context.Context, userID int64) ([]int64, error)
	// Add は商品をお気に入りに追加する。既に登録済みの場合はcreated=falseを返す。
	Add(ctx context.Context, userID int64, rawProductID string) (*model.Favorite, bool, error)
	// Remove は商品をお気に入りから解除する。未登録でもエラーにしない。
	Remove(ctx context.Context, userID int64, rawProductID string) error
}

// FavoriteHandler はお気に入りのHTTPハンドラー。
type FavoriteHandler struct {
	service FavoriteServiceInterface
}

// NewFavoriteHandler はFavoriteHandlerを生成する。
func NewFavoriteHandler(service FavoriteServiceInterface) *FavoriteHandler {
	return &FavoriteHandler{service: service}
}

// favoriteResponse はお気に入り関係のAPIレスポンス。
type favoriteResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toFavoriteResponse(f *model.Favorite) favoriteResponse {
	return favoriteResponse{
		ID:        f.ID,
		UserID:    f.UserID,
		ProductID: f.ProductID,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// ListFavorites はログインユーザーのお気に入り商品ID一覧を返す。
// GET /favorites
func (h *FavoriteHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	ids, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusOK, "お気に入りを取得しました。", ids)
}

// AddFavorite は商品をお気に入りに追加する。
// 新規作成時は201、登録済みの場合は既存の関係を200で返す。
// POST /favorites/{productId}
func (h *FavoriteHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	fav, created, err := h.service.Add(r.Context(), userID, chi.URLParam(r, "productId"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if !created {
		middleware.WriteSuccess(w, http.StatusOK, "この商品は既にお気に入りに登録されています。", toFavoriteResponse(fav))
		return
	}
	middleware.WriteSuccess(w, http.StatusCreated, "お気に入りに追加しました。", toFavoriteResponse(fav))
}

// RemoveFavorite は商品をお気に入りから解除する。
// DELETE /favorites/{productId}
func (h *FavoriteHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), userID, chi.URLParam(r, "productId")); err != nil {
		handleServiceError(w, r, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusOK, "お気に入りから解除しました。", nil)
}
