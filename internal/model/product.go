package model

import (
	"strconv"
	"time"
)

// Product はストアで販売する商品を表す。
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       float64
	Category    string
	Stock       int
	Image       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time // 論理削除日時。nilの場合は有効
}

// IsDeleted は論理削除済みかどうかを返す。
func (p *Product) IsDeleted() bool {
	return p.DeletedAt != nil
}

// ProductFilter は商品一覧の絞り込み条件。
type ProductFilter struct {
	Category string // 空文字の場合は全カテゴリ
}

// ParseProductID はURLパスなど外部入力の商品IDを解釈する。
// 10進数字のみで構成される正の整数でなければINVALID_PRODUCT_IDのAPIErrorを返す。
func ParseProductID(raw string) (int64, error) {
	if raw == "" {
		return 0, NewInvalidProductIDError(raw)
	}
	for _, c := range raw {
		if c < '0' || c > '9' {
			return 0, NewInvalidProductIDError(raw)
		}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewInvalidProductIDError(raw)
	}
	return id, nil
}
