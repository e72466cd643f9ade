package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/bookhavenapp/bookhaven-server/internal/config"
	"github.com/bookhavenapp/bookhaven-server/internal/logger"
	"github.com/bookhavenapp/bookhaven-server/internal/media/images"
)

// ProvideImageLayout provides the uploads directory layout.
func ProvideImageLayout(i do.Injector) (*images.Layout, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	layout, err := images.NewLayout(cfg.Uploads.BasePath)
	if err != nil {
		return nil, fmt.Errorf("uploads layout: %w", err)
	}

	log.Info("Uploads directory ready", "path", layout.Base())

	return layout, nil
}

// ProvideImageStorage provides file access under the uploads layout.
func ProvideImageStorage(i do.Injector) (*images.Storage, error) {
	layout := do.MustInvoke[*images.Layout](i)
	return images.NewStorage(layout), nil
}

// ProvideImageProcessor provides the derivative generator.
func ProvideImageProcessor(i do.Injector) (*images.Processor, error) {
	layout := do.MustInvoke[*images.Layout](i)
	log := do.MustInvoke[*logger.Logger](i)

	return images.NewProcessor(layout, log.Logger), nil
}
