package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/pharmacart/internal/model"
)

// insertAttempts はINSERTと既存行の読み取りの間に並行削除が割り込んだ場合の再試行上限。
const insertAttempts = 3

// PostgresFavoriteRepo はPostgreSQLを使用したお気に入りリポジトリ。
// 一意性はUNIQUE(user_id, product_id)制約で保証し、アプリケーション側の事前確認には依存しない。
type PostgresFavoriteRepo struct {
	db *sql.DB
}

// NewPostgresFavoriteRepo はPostgresFavoriteRepoを生成する。
func NewPostgresFavoriteRepo(db *sql.DB) *PostgresFavoriteRepo {
	return &PostgresFavoriteRepo{db: db}
}

// Exists は指定ユーザーが指定商品をお気に入り登録しているかを返す。
func (r *PostgresFavoriteRepo) Exists(ctx context.Context, userID, productID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND product_id = $2)`,
		userID, productID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("お気に入りの存在確認に失敗しました: %w", err)
	}
	return exists, nil
}

// Insert はお気に入りを冪等に作成する。
// INSERT ON CONFLICT DO NOTHINGで重複を吸収し、行が返らなかった場合は既存行を読み取って
// created=falseで返す。
func (r *PostgresFavoriteRepo) Insert(ctx context.Context, userID, productID int64) (*model.Favorite, bool, error) {
	for attempt := 0; attempt < insertAttempts; attempt++ {
		fav := &model.Favorite{}
		err := r.db.QueryRowContext(ctx,
			`INSERT INTO favorites (user_id, product_id)
			 VALUES ($1, $2)
			 ON CONFLICT ON CONSTRAINT favorites_user_product_key DO NOTHING
			 RETURNING id, user_id, product_id, created_at, updated_at`,
			userID, productID,
		).Scan(&fav.ID, &fav.UserID, &fav.ProductID, &fav.CreatedAt, &fav.UpdatedAt)

		if err == nil {
			return fav, true, nil
		}
		if isPQError(err, pgForeignKeyViolation, "favorites_product_id_fkey") {
			return nil, false, model.NewProductNotFoundError(productID)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, false, fmt.Errorf("お気に入りの作成に失敗しました: %w", err)
		}

		// 競合: 既存行を返す
		existing, err := r.findByUserAndProduct(ctx, userID, productID)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, false, nil
		}
		// 読み取り前に並行して削除された場合は再度INSERTを試みる
	}

	return nil, false, fmt.Errorf("お気に入りの作成が競合により完了しませんでした: user_id=%d product_id=%d", userID, productID)
}

// Delete はお気に入りを削除し、削除件数を返す。
func (r *PostgresFavoriteRepo) Delete(ctx context.Context, userID, productID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	if err != nil {
		return 0, fmt.Errorf("お気に入りの削除に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return n, nil
}

// ListProductIDsByUser はユーザーのお気に入り商品IDを登録順で返す。
func (r *PostgresFavoriteRepo) ListProductIDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT f.product_id
		 FROM favorites f
		 JOIN products p ON p.id = f.product_id
		 WHERE f.user_id = $1 AND p.deleted_at IS NULL
		 ORDER BY f.id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("お気に入り一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("お気に入りのスキャンに失敗しました: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("お気に入り一覧の読み取りに失敗しました: %w", err)
	}
	return ids, nil
}

// findByUserAndProduct はユーザーIDと商品IDでお気に入りを取得する。見つからない場合はnilを返す。
func (r *PostgresFavoriteRepo) findByUserAndProduct(ctx context.Context, userID, productID int64) (*model.Favorite, error) {
	fav := &model.Favorite{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, product_id, created_at, updated_at
		 FROM favorites WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	).Scan(&fav.ID, &fav.UserID, &fav.ProductID, &fav.CreatedAt, &fav.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("お気に入りの取得に失敗しました: %w", err)
	}
	return fav, nil
}

// compile-time interface check
var _ FavoriteRepository = (*PostgresFavoriteRepo)(nil)
