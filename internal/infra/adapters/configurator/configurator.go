// configurator is an adapter for loading and saving the configuration
// (server base URL, author, logo and publishing settings) from a YAML
// file. It implements the ports.ForConfiguring interface.
package configurator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/sa6mwa/addepisode/internal/app/model"
	"github.com/sa6mwa/addepisode/internal/app/ports"
	"github.com/sa6mwa/addepisode/internal/infra/adapters/logger"
	"gopkg.in/yaml.v3"
)

const DefaultConfigFile string = "addepisode.yaml"

// configurator.New returns a local file-based configurator that
// satisfies the ports.ForConfiguring port interface. If configFile is
// empty, DefaultConfigFile is used and a missing file simply means
// defaults. A configFile given explicitly must exist.
func New(configFile string) ports.ForConfiguring {
	required := true
	if configFile == "" {
		configFile = DefaultConfigFile
		required = false
	}
	return &forConfiguring{
		configFile: model.ResolveTilde(configFile),
		required:   required,
	}
}

// Implements the ports.ForConfiguring interface.
type forConfiguring struct {
	configFile string
	required   bool
}

func (c *forConfiguring) Load(ctx context.Context) (*model.Config, error) {
	l := logger.FromContext(ctx)
	f, err := os.Open(c.configFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !c.required {
			l.Debug("No configuration file, using defaults", "file", c.configFile)
			return model.DefaultConfig(), nil
		}
		return nil, err
	}
	defer f.Close()
	var cfg model.Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unable to parse %s: %w", c.configFile, err)
	}
	cfg.SetDefaults()
	l.Debug("Loaded configuration", "file", c.configFile)
	return &cfg, nil
}

func (c *forConfiguring) Save(ctx context.Context, cfg *model.Config) error {
	if cfg == nil {
		return model.ErrNilPointer
	}
	f, err := os.Create(c.configFile)
	if err != nil {
		return fmt.Errorf("unable to write %s: %w", c.configFile, err)
	}
	defer f.Close()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("unable to marshall yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("unable to marshall yaml: %w", err)
	}
	logger.FromContext(ctx).Info("Wrote configuration", "file", c.configFile)
	return f.Close()
}
