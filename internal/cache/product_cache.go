// Package cache は商品参照のRedisキャッシュを提供する。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/hitoshi/pharmacart/internal/model"
	"github.com/hitoshi/pharmacart/internal/repository"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "pharmacart:product:"

// ProductRepo はrepository.ProductRepositoryをRedisキャッシュで包むデコレーター。
// FindByIDの結果をTTL付きでキャッシュし、Update・SoftDeleteで該当キーを破棄する。
// Redisの障害時はログを出してリポジトリへフォールバックする。
type ProductRepo struct {
	next   repository.ProductRepository
	client redis.Cmdable
	ttl    time.Duration
}

// NewProductRepo はProductRepoを生成する。
func NewProductRepo(next repository.ProductRepository, client redis.Cmdable, ttl time.Duration) *ProductRepo {
	return &ProductRepo{
		next:   next,
		client: client,
		ttl:    ttl,
	}
}

// NewClient はREDIS_URL形式のURLからクライアントを生成し、疎通を確認する。
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func productKey(id int64) string {
	return keyPrefix + strconv.FormatInt(id, 10)
}

// FindByID はキャッシュを優先して商品を取得する。
// 存在しない商品はキャッシュしない。
func (r *ProductRepo) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	key := productKey(id)

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p model.Product
		if jsonErr := json.Unmarshal(raw, &p); jsonErr == nil {
			return &p, nil
		}
		slog.Warn("商品キャッシュの復元に失敗しました", slog.String("key", key))
	case !errors.Is(err, redis.Nil):
		slog.Warn("商品キャッシュの取得に失敗しました",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}

	p, err := r.next.FindByID(ctx, id)
	if err != nil || p == nil {
		return p, err
	}

	if body, err := json.Marshal(p); err == nil {
		if err := r.client.Set(ctx, key, body, r.ttl).Err(); err != nil {
			slog.Warn("商品キャッシュの保存に失敗しました",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}
	return p, nil
}

// List はキャッシュを使わずリポジトリに委譲する。
func (r *ProductRepo) List(ctx context.Context, filter model.ProductFilter) ([]*model.Product, error) {
	return r.next.List(ctx, filter)
}

// Create はリポジトリに委譲する。
func (r *ProductRepo) Create(ctx context.Context, product *model.Product) error {
	return r.next.Create(ctx, product)
}

// Update は商品を更新し、キャッシュを破棄する。
func (r *ProductRepo) Update(ctx context.Context, product *model.Product) (bool, error) {
	ok, err := r.next.Update(ctx, product)
	if err != nil {
		return false, err
	}
	r.Invalidate(ctx, product.ID)
	return ok, nil
}

// SoftDelete は商品を論理削除し、キャッシュを破棄する。
func (r *ProductRepo) SoftDelete(ctx context.Context, id int64, at time.Time) (bool, error) {
	ok, err := r.next.SoftDelete(ctx, id, at)
	if err != nil {
		return false, err
	}
	r.Invalidate(ctx, id)
	return ok, nil
}

// Invalidate は指定商品のキャッシュを破棄する。失敗はログのみ。
func (r *ProductRepo) Invalidate(ctx context.Context, id int64) {
	if err := r.client.Del(ctx, productKey(id)).Err(); err != nil {
		slog.Warn("商品キャッシュの破棄に失敗しました",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
	}
}
