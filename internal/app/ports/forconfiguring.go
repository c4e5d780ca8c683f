package ports

import (
	"context"

	"github.com/sa6mwa/addepisode/internal/app/model"
)

type ForConfiguring interface {
	// Load returns the configuration with defaults applied for any
	// field left empty.
	Load(ctx context.Context) (*model.Config, error)
	Save(ctx context.Context, cfg *model.Config) error
}
