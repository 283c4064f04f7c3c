package configuration

import (
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// dotenvFiles are loaded, in order, when present in the working directory.
// Variables already set in the process environment win.
var dotenvFiles = []string{".env.local", ".env"}

// Env holds the process environment the client reads once at startup.
type Env struct {
	// The Gemini API key. Absent means empty; the remote service rejects it at call time.
	APIKey string `env:"API_KEY" env-default:""`
}

// ReadEnv loads dotenv files if present and reads the environment.
func ReadEnv() (*Env, error) {
	for _, file := range dotenvFiles {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return nil, errors.Wrapf(err, "loading %s", file)
		}
	}

	env := &Env{}
	if err := cleanenv.ReadEnv(env); err != nil {
		return nil, errors.Wrap(err, "parsing environment")
	}
	return env, nil
}
