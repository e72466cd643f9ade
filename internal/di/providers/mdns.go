package providers

import (
	"strconv"

	"github.com/samber/do/v2"

	"github.com/bookhavenapp/bookhaven-server/internal/config"
	"github.com/bookhavenapp/bookhaven-server/internal/logger"
	"github.com/bookhavenapp/bookhaven-server/internal/mdns"
)

// MDNSHandle wraps the mDNS service with shutdown capability.
type MDNSHandle struct {
	*mdns.Service
}

// Shutdown implements do.Shutdownable.
func (h *MDNSHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideMDNS provides local-network advertisement of the server.
// Advertisement failures are non-fatal; some environments (Docker,
// locked-down networks) do not support multicast.
func ProvideMDNS(i do.Injector) (*MDNSHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := mdns.NewService(log.Logger)

	if !cfg.Server.EnableMDNS {
		log.Info("mDNS advertisement disabled")
		return &MDNSHandle{Service: svc}, nil
	}

	port, err := strconv.Atoi(cfg.Server.Port)
	if err != nil {
		log.Warn("invalid port for mDNS advertisement", "port", cfg.Server.Port)
		return &MDNSHandle{Service: svc}, nil
	}

	if err := svc.Start(cfg.Server.Name, port); err != nil {
		log.Warn("mDNS advertisement unavailable", "error", err)
	}

	return &MDNSHandle{Service: svc}, nil
}
