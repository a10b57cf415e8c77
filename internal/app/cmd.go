package app

// Command は起動時に選択するサブコマンド。
type Command string

const (
	// CommandServe はAPIサーバーを起動する。
	CommandServe Command = "serve"
	// CommandWorker はセッションクリーンアップワーカーを起動する。
	CommandWorker Command = "worker"
	// CommandMigrate はスキーママイグレーションを適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は稼働中サーバーの疎通確認を行って終了する。
	// curlを持たないdistrolessコンテナのHEALTHCHECKから呼ばれる。
	CommandHealthcheck Command = "healthcheck"
)

// knownCommands はサブコマンド名からCommandへの対応表。
var knownCommands = map[string]Command{
	"serve":       CommandServe,
	"worker":      CommandWorker,
	"migrate":     CommandMigrate,
	"healthcheck": CommandHealthcheck,
}

// ParseCommand は先頭の引数をサブコマンドとして解釈する。
// 引数がない場合と未知のコマンドの場合はserveにフォールバックする。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if cmd, ok := knownCommands[args[0]]; ok {
		return cmd
	}
	return CommandServe
}
