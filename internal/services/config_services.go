package services

import (
	"blitzscan/internal/backend"
	"blitzscan/internal/config"
	"blitzscan/internal/models"
	"blitzscan/pkg/logger"
)

// ScanModule describes one scan kind as offered to clients.
type ScanModule struct {
	Kind        models.ScanKind `json:"scan_type" yaml:"scan_type"`
	Description string          `json:"description" yaml:"description"`
	Endpoint    string          `json:"endpoint" yaml:"endpoint"`
	MaxRetries  int             `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
}

type ConfigServiceMethods interface {
	GetScanModules() []ScanModule
}

type configService struct {
	cfg *config.Config
	log *logger.Logger
}

func NewConfigService(cfg *config.Config, l *logger.Logger) ConfigServiceMethods {
	if l == nil {
		l = logger.Default()
	}
	return &configService{cfg: cfg, log: l}
}

func (c *configService) GetScanModules() []ScanModule {
	modules := make([]ScanModule, 0, len(models.ScanKinds))
	for _, kind := range models.ScanKinds {
		module := ScanModule{Kind: kind, Description: kind.Description()}
		switch kind {
		case models.KindFuzzing:
			module.Endpoint = backend.EndpointDirectoryFuzz
		case models.KindNmap:
			module.Endpoint = backend.EndpointPortScan
		case models.KindWhois:
			module.Endpoint = backend.EndpointWhois
			module.MaxRetries = backend.DefaultMaxRetries
			if c.cfg != nil {
				module.MaxRetries = c.cfg.Whois.MaxRetries
			}
		}
		modules = append(modules, module)
	}

	c.log.WithField("module_count", len(modules)).Debug("Listing scan modules")
	return modules
}
