package model

import "time"

// Favorite はユーザーと商品のお気に入り関係（1ユーザー×1商品につき1行）を表す。
// 作成後に更新されることはなく、解除時に削除される。
type Favorite struct {
	ID        int64
	UserID    int64
	ProductID int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
