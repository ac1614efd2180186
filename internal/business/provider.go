package business

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Provider reads the business document from disk. Every Load reads the file
// again, so edits take effect on the next request.
type Provider struct {
	path string
}

// NewProvider creates a provider for the document at path.
func NewProvider(path string) *Provider {
	return &Provider{path: path}
}

// Load reads, decodes and validates the document.
func (p *Provider) Load(ctx context.Context) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(p.path)
	if ext := strings.TrimPrefix(filepath.Ext(p.path), "."); ext == "" {
		v.SetConfigType("json")
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read business config %s: %w", p.path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode business config %s: %w", p.path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
