package artifact

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config selects and configures an artifact store backend.
//
// YAML form:
//
//	backend: local
//	local:
//	  root: /srv/ci/artifacts
//
// or:
//
//	backend: minio
//	minio:
//	  endpoint: minio.internal:9000
//	  access_key: ...
//	  secret_key: ...
//	  bucket: ci-artifacts
type Config struct {
	Backend string `yaml:"backend"`
	Local   struct {
		Root string `yaml:"root"`
	} `yaml:"local"`
	MinIO MinIOConfig `yaml:"minio"`
}

// LoadConfig reads a backend config from a YAML file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read artifacts config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse artifacts config: %w", err)
	}
	return cfg, nil
}

// Open constructs the store the config selects.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", "local":
		root := cfg.Local.Root
		if root == "" {
			root = "artifacts"
		}
		return NewLocalStore(root)
	case "minio":
		return NewMinIOStore(ctx, cfg.MinIO)
	default:
		return nil, fmt.Errorf("unknown artifact backend %q", cfg.Backend)
	}
}
