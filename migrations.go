package docbot

import (
	"io/fs"

	"github.com/goliatone/go-docbot/internal/storage"
)

// GetMigrationsFS returns the embedded SQL migrations for the governance
// config tables.
func GetMigrationsFS() fs.FS {
	return storage.MigrationsFS()
}
