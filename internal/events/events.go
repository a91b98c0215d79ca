// Package events はお気に入りの追加・削除イベントの発行を提供する。
package events

import (
	"context"
	"time"
)

// イベント種別
const (
	TypeFavoriteAdded   = "favorite.added"
	TypeFavoriteRemoved = "favorite.removed"
)

// FavoriteEvent はお気に入りの状態変化を表すイベント。
type FavoriteEvent struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	UserID     int64     `json:"user_id"`
	ProductID  int64     `json:"product_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher はお気に入りイベントの発行先。
type Publisher interface {
	PublishFavorite(ctx context.Context, event FavoriteEvent) error
	Close() error
}

// NopPublisher はイベントを破棄するPublisher。
// Kafkaブローカーが未設定の場合に使用する。
type NopPublisher struct{}

// PublishFavorite は何もしない。
func (NopPublisher) PublishFavorite(context.Context, FavoriteEvent) error { return nil }

// Close は何もしない。
func (NopPublisher) Close() error { return nil }
