// Package logger は構造化ログの初期化を提供する。
package logger

import (
	"io"
	"log/slog"
	"os"
)

// serviceName はすべてのログエントリに付与するサービス識別子。
// 複数サービスのログを集約したときの絞り込みに使う。
const serviceName = "teamdeck"

// Setup はJSON形式のslog.Loggerを生成して返す。
// wがnilの場合はos.Stdoutに出力する。
func Setup(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(handler).With(slog.String("service", serviceName))
}

// SetupDefault はSetupで生成したロガーをグローバルロガーに設定する。
func SetupDefault(w io.Writer) {
	slog.SetDefault(Setup(w))
}
