// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/pharmacart/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成し、採番されたIDと作成日時をuserに設定する。
	// メールアドレスが重複する場合はEMAIL_TAKENのAPIErrorを返す。
	Create(ctx context.Context, user *model.User) error
}

// ProductRepository は商品データの永続化インターフェース。
// 論理削除済みの商品は取得系メソッドの結果に含めない。
type ProductRepository interface {
	// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Product, error)

	// List は商品一覧をID昇順で返す。
	List(ctx context.Context, filter model.ProductFilter) ([]*model.Product, error)

	// Create は商品を作成し、採番されたIDと作成日時をproductに設定する。
	Create(ctx context.Context, product *model.Product) error

	// Update は商品情報を更新する。対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, product *model.Product) (bool, error)

	// SoftDelete は商品を論理削除する。対象が存在しない場合はfalseを返す。
	SoftDelete(ctx context.Context, id int64, at time.Time) (bool, error)
}

// FavoriteRepository はユーザーごとのお気に入り（user_id, product_id）の永続化インターフェース。
// 全操作でuser_idを条件に含め、他ユーザーの行には触れない。
type FavoriteRepository interface {
	// Exists は指定ユーザーが指定商品をお気に入り登録しているかを返す。
	Exists(ctx context.Context, userID, productID int64) (bool, error)

	// Insert はお気に入りを作成する。
	// 既に同じ組が存在する場合は既存の行とcreated=falseを返す（冪等）。
	// 商品が存在しない場合はPRODUCT_NOT_FOUNDのAPIErrorを返す。
	Insert(ctx context.Context, userID, productID int64) (fav *model.Favorite, created bool, err error)

	// Delete はお気に入りを削除し、削除件数を返す。対象がなくてもエラーにしない。
	Delete(ctx context.Context, userID, productID int64) (int64, error)

	// ListProductIDsByUser はユーザーのお気に入り商品IDを登録順で返す。
	// 論理削除済みの商品は含めない。
	ListProductIDsByUser(ctx context.Context, userID int64) ([]int64, error)
}
