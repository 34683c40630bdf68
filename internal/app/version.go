package app

// 构建信息，通过 -ldflags "-X hazard-report/internal/app.Version=..." 注入。
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)
