// Package cleanup は期限切れセッションの自動削除ジョブを提供する。
// 外部認証システムが発行したセッションのうち有効期限を過ぎたものを
// 定期バッチで削除する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CleanupJob は期限切れセッションの自動削除ジョブ。
// 定期実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	db     Executor
	logger *slog.Logger
	// GracePeriodHours は期限切れ後も削除を保留する猶予時間。
	// 期限切れ直後のリクエストとの競合によるログノイズを避ける。
	GracePeriodHours int
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの猶予時間は24時間。
func NewCleanupJob(db Executor, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		db:               db,
		logger:           logger,
		GracePeriodHours: 24,
	}
}

// Run は有効期限を過ぎたセッションを削除する。
// expires_atが猶予時間分前より古いセッションをDELETEする。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	interval := fmt.Sprintf("%d hours", j.GracePeriodHours)

	query := `DELETE FROM sessions WHERE expires_at < now() - $1::interval`
	result, err := j.db.ExecContext(ctx, query, interval)
	if err != nil {
		j.logger.Error("セッションクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("grace_period_hours", j.GracePeriodHours),
		)
		return fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	deletedCount, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Int("grace_period_hours", j.GracePeriodHours),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
