package app

// Command はpharmacartの起動モード（サブコマンド）。
type Command string

const (
	// CommandServe は商品・お気に入り・認証のREST APIを提供する。
	CommandServe Command = "serve"
	// CommandWorker は保持期間を過ぎた論理削除済み商品を日次で物理削除する。
	// 削除件数はWORKER_METRICS_PORTの/metricsで公開する。
	CommandWorker Command = "worker"
	// CommandMigrate は埋め込みマイグレーションを適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はAPIサーバーの/healthを叩いて終了コードで結果を返す。
	// シェルを持たないdistrolessイメージのHEALTHCHECKから呼ぶ。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand は先頭の引数からサブコマンドを決める。
// 引数なし、または未知のサブコマンドはserveとして扱う。2番目以降の引数は見ない。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch Command(args[0]) {
	case CommandWorker, CommandMigrate, CommandHealthcheck:
		return Command(args[0])
	default:
		return CommandServe
	}
}
