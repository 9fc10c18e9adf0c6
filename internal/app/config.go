package app

import (
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/adanyl0v/project-manager/internal/config"
)

// MustReadEnv reads the config from CONFIG_FILE when it is set and
// from the environment otherwise.
func MustReadEnv() {
	var reader config.Reader = config.NewEnvReader()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		reader = config.NewFileReader(path)
	}

	cfg, err := reader.Read()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to read env")
		panic(err)
	}
	globalLogger.Info().
		Str("env", cfg.Env).
		Msg("read env")

	config.SetGlobal(cfg)
}
