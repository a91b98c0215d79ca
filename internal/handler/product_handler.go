package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/pharmacart/internal/middleware"
	"github.com/hitoshi/pharmacart/internal/model"
	"github.com/hitoshi/pharmacart/internal/product"
)

// ProductServiceInterface は商品ハンドラーが必要とするサービスインターフェース。
type ProductServiceInterface interface {
	List(ctx context.Context, filter model.ProductFilter) ([]*model.Product, error)
	// Get は商品詳細を返す。userIDが0の場合はお気に入り状態を含めない。
	Get(ctx context.Context, id, userID int64) (*product.Detail, error)
	Create(ctx context.Context, in product.Input) (*model.Product, error)
	Update(ctx context.Context, id int64, in product.Input) (*model.Product, error)
	Delete(ctx context.Context, id int64) error
}

// ProductHandler は商品カタログのHTTPハンドラー。
type ProductHandler struct {
	service ProductServiceInterface
}

// NewProductHandler はProductHandlerを生成する。
func NewProductHandler(service ProductServiceInterface) *ProductHandler {
	return &ProductHandler{service: service}
}

// productRequest は商品作成・更新リクエストのボディ。
type productRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Category    string   `json:"category" validate:"required,max=100"`
	Stock       *int     `json:"stock" validate:"required,gte=0"`
	Image       string   `json:"image" validate:"omitempty,url,max=2048"`
}

func (req *productRequest) toInput() product.Input {
	return product.Input{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Category:    req.Category,
		Stock:       *req.Stock,
		Image:       req.Image,
	}
}

// productResponse は商品情報のAPIレスポンス。
type productResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Stock       int       `json:"stock"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// productDetailResponse は商品詳細のAPIレスポンス。
// is_favoriteは認証済みリクエストの場合のみ含まれる。
type productDetailResponse struct {
	productResponse
	IsFavorite *bool `json:"is_favorite,omitempty"`
}

func toProductResponse(p *model.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Stock:       p.Stock,
		Image:       p.Image,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ListProducts は商品一覧を返す。categoryクエリで絞り込める。
// GET /products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter := model.ProductFilter{Category: r.URL.Query().Get("category")}

	products, err := h.service.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	middleware.WriteSuccess(w, http.StatusOK, "商品一覧を取得しました。", resp)
}

// GetProduct は商品詳細を返す。
// GET /products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParseProductID(chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	// 未認証の場合は0のままお気に入り状態なしで返す
	userID, _ := middleware.UserIDFromContext(r.Context())

	detail, err := h.service.Get(r.Context(), id, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusOK, "商品を取得しました。", productDetailResponse{
		productResponse: toProductResponse(detail.Product),
		IsFavorite:      detail.IsFavorite,
	})
}

// CreateProduct は商品を登録する。管理者のみ。
// POST /products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	p, err := h.service.Create(r.Context(), req.toInput())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusCreated, "商品を登録しました。", toProductResponse(p))
}

// UpdateProduct は商品情報を更新する。管理者のみ。
// PUT /products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParseProductID(chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	var req productRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	p, err := h.service.Update(r.Context(), id, req.toInput())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusOK, "商品を更新しました。", toProductResponse(p))
}

// DeleteProduct は商品を論理削除する。管理者のみ。
// DELETE /products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParseProductID(chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusOK, "商品を削除しました。", nil)
}
