package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	goenv "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Load reads the optional dotenv file named by ENV_FILE (".env" when unset)
// into the process environment and then decodes the environment into dst,
// which must be a pointer to a struct carrying `env:"..."` tags.
// Variables already present in the environment win over the file.
func Load(dst any) error {
	file := Env("ENV_FILE", ".env")
	if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", file, err)
	}
	if _, err := goenv.UnmarshalFromEnviron(dst); err != nil {
		return fmt.Errorf("decode environment: %w", err)
	}
	return nil
}

func Env(k, d string) string {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	return v
}

// FirstNonEmpty returns the first value that is not blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
