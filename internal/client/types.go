package client

import (
	"encoding/json"
	"time"
)

// Product は商品一覧・詳細の表示用データ。
type Product struct {
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

// Favorite はサーバーが返すお気に入り関係。
type Favorite struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User はログイン中のユーザー情報。
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Session はログイン・登録成功時に受け取るトークンとユーザー。
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// envelope はAPIレスポンスの統一フォーマット。successが欠けた応答はエンベロープとして扱わない。
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// errorDetail は失敗エンベロープのdata。
type errorDetail struct {
	Code     string `json:"code"`
	Category string `json:"category"`
	Action   string `json:"action"`
}
