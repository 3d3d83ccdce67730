package cli

import (
	"github.com/spf13/viper"

	"github.com/leadrail/leadrail/internal/config"
	"github.com/leadrail/leadrail/internal/store"
)

// openStore opens the store described by the config file, for CLI commands
// that operate on the database directly.
func openStore() (*store.Store, error) {
	cfg := config.Default()
	if path := viper.ConfigFileUsed(); path != "" {
		if loaded, err := config.Load(path); err == nil {
			cfg = loaded
		}
	}
	return store.Open(cfg.Store.Driver, cfg.Store.DSN)
}
