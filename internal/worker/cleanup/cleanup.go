// Package cleanup は論理削除済み商品の自動削除ジョブを提供する。
// 保持期間（デフォルト30日）を超えて論理削除されたままの商品を
// 日次バッチで物理削除する。favoritesはCASCADE削除で自動的に処理される。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

const (
	// DefaultRetentionDays は論理削除後に商品を保持する日数のデフォルト。
	DefaultRetentionDays = 30
	// initialRetryDelay は失敗後の初回再実行までの遅延。
	initialRetryDelay = time.Minute
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PurgeRecorder は物理削除した商品数を記録する。
type PurgeRecorder interface {
	RecordProductsPurged(count int64)
}

type nopRecorder struct{}

func (nopRecorder) RecordProductsPurged(int64) {}

// PurgeJob は保持期間を超過した論理削除済み商品の削除ジョブ。
// 冪等な削除処理であり、何度実行しても結果は変わらない。
type PurgeJob struct {
	db            Executor
	logger        *slog.Logger
	recorder      PurgeRecorder
	RetentionDays int // 論理削除後の保持日数（デフォルト: 30）
}

// NewPurgeJob は新しいPurgeJobを生成する。recorderがnilの場合は記録しない。
func NewPurgeJob(db Executor, logger *slog.Logger, recorder PurgeRecorder) *PurgeJob {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &PurgeJob{
		db:            db,
		logger:        logger,
		recorder:      recorder,
		RetentionDays: DefaultRetentionDays,
	}
}

// Run は保持期間を超過した論理削除済み商品を削除し、削除件数を返す。
// deleted_atがRetentionDays日前より古い商品をDELETEする。
// 有効な商品（deleted_atがNULL）は対象外。
func (j *PurgeJob) Run(ctx context.Context) (int64, error) {
	start := time.Now()

	interval := fmt.Sprintf("%d days", j.RetentionDays)

	query := `DELETE FROM products WHERE deleted_at IS NOT NULL AND deleted_at < now() - $1::interval`
	result, err := j.db.ExecContext(ctx, query, interval)
	if err != nil {
		j.logger.Error("商品クリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return 0, fmt.Errorf("商品クリーンアップの実行に失敗: %w", err)
	}

	deletedCount, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	j.recorder.RecordProductsPurged(deletedCount)

	duration := time.Since(start)
	j.logger.Info("商品クリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return deletedCount, nil
}

// Start は起動直後に1回実行し、以降はinterval間隔で実行する。
// 失敗した場合は指数バックオフ（1分から2倍ずつ、最大interval）で再実行する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *PurgeJob) Start(ctx context.Context, interval time.Duration) {
	j.logger.Info("商品クリーンアップジョブを開始しました",
		slog.Duration("interval", interval),
		slog.Int("retention_days", j.RetentionDays),
	)

	failures := 0
	for {
		delay := interval
		if _, err := j.Run(ctx); err != nil {
			failures++
			delay = retryDelay(failures, interval)
			j.logger.Warn("商品クリーンアップジョブを再実行します",
				slog.Int("consecutive_failures", failures),
				slog.Duration("retry_in", delay),
			)
		} else {
			failures = 0
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			j.logger.Info("商品クリーンアップジョブを停止しました")
			return
		case <-timer.C:
		}
	}
}

// retryDelay は連続失敗回数に基づいて再実行までの遅延を計算する。
// 初回1分、2倍ずつ増加、最大max。
func retryDelay(consecutiveFailures int, max time.Duration) time.Duration {
	delay := initialRetryDelay
	for i := 1; i < consecutiveFailures; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}
