package paths

import (
	"os"

	"stremio2m3u/pkg/env"
)

// GetDataDir returns the data directory path.
// DATA_DIR wins when set. If running in Docker (/.dockerenv exists), returns /app/data.
// Otherwise returns current directory (.)
func GetDataDir() string {
	if dir := os.Getenv(env.DataDir); dir != "" {
		return dir
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return "/app/data"
	}
	return "."
}
