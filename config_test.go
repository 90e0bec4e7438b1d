package docbot_test

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/goliatone/go-docbot"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := docbot.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
	cfg.Storage.Driver = "postgres"
	if err := cfg.Validate(); !errors.Is(err, docbot.ErrStorageDSNRequired) {
		t.Fatalf("expected ErrStorageDSNRequired, got %v", err)
	}
}

func TestMigrationsAreEmbedded(t *testing.T) {
	files, err := fs.Glob(docbot.GetMigrationsFS(), "*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected up and down migration, got %v", files)
	}
}
