package main

import (
	"log/slog"
	"os"

	"splitics/src/handler"
	"splitics/src/metric"
	"splitics/src/utils"

	"github.com/joho/godotenv"
)

func init() {
	if err := godotenv.Load(); err != nil {
		slog.Info(err.Error())
	}
	level := slog.LevelInfo
	if parsed, ok := utils.ParseLogLevel(os.Getenv("LOG_LEVEL")); ok {
		level = parsed
	}
	slog.SetDefault(utils.NewLogger(os.Stderr, level))
}

func main() {
	as := utils.NewAppState()
	metric.Init(as)

	root := handler.Root(as)
	runErr := root.Execute()
	if runErr != nil {
		slog.Error("can't run command", "error", runErr)
	}

	if err := metric.WriteTextfile(as); err != nil {
		slog.Error("can't write metrics", "path", as.Config.GetMetricsFile(), "error", err)
	}

	if runErr != nil {
		os.Exit(1)
	}
}
