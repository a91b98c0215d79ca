// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限種別を表す。
type Role string

const (
	// RoleUser は一般ユーザー。
	RoleUser Role = "user"
	// RoleAdmin は商品の登録・更新・削除が可能な管理者。
	RoleAdmin Role = "admin"
)

// User はストアの利用ユーザーを表す。
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin は管理者権限を持つかどうかを返す。
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Identity は検証済みトークンから得られる認証済みユーザーの参照。
// リクエストボディやURLから組み立ててはならない。
type Identity struct {
	UserID int64
	Role   Role
}
