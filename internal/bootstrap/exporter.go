package bootstrap

import (
	"github.com/locvowork/sql2xlsx/internal/config"
	"github.com/locvowork/sql2xlsx/internal/database"
	"github.com/locvowork/sql2xlsx/internal/exporter"
)

// LoadProfile reads the export profile at path. An empty path means no profile.
func LoadProfile(path string) (*config.Profile, error) {
	if path == "" {
		return nil, nil
	}
	return config.LoadProfile(path)
}

// NewExporter builds an exporter for the configured database. Profile
// settings apply first so that extra options can override them.
func NewExporter(env config.EnvConfig, profile *config.Profile, extra ...exporter.Option) *exporter.Exporter {
	opts := []exporter.Option{}
	if profile != nil {
		opts = append(opts,
			exporter.WithChunkSize(profile.ChunkSize),
			exporter.WithSheetOptions(profile.Options()...),
		)
		if profile.Prefetch {
			opts = append(opts, exporter.WithPrefetch(1))
		}
	}
	opts = append(opts, extra...)
	return exporter.New(exporter.SQLDialer{Config: database.ConfigFromEnv(env)}, opts...)
}
