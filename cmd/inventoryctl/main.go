package main

import (
	"os"

	"github.com/fekuna/omnipos-voice-intake/config"
	"github.com/fekuna/omnipos-voice-intake/internal/logger"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	appLogger := logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment:     true,
		Encoding:          "console",
		Level:             cfg.Logger.Level,
		DisableCaller:     true,
		DisableStacktrace: true,
	})
	defer appLogger.Sync()

	if err := newRootCmd(newPostgresApp(cfg, appLogger)).Execute(); err != nil {
		os.Exit(1)
	}
}
