package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandDemo はデモセッションモードで起動することを示す。
	// シードユーザーとデモ資格情報で一連のシナリオを実行し、
	// 観測用HTTPリスナーを起動したままシグナルを待つ。
	CommandDemo Command = "demo"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandDemoを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandDemo
	}

	switch args[0] {
	case "demo":
		return CommandDemo
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandDemo
	}
}
