package services

import (
	"testing"

	"blitzscan/internal/config"
	"blitzscan/internal/models"
	"blitzscan/pkg/logger"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logger.Logger {
	return logger.NewLogger(logrus.PanicLevel)
}

func TestConfigService_GetScanModules(t *testing.T) {
	cfg := &config.Config{Whois: config.WhoisConfig{MaxRetries: 5}}

	modules := NewConfigService(cfg, testLogger()).GetScanModules()
	require.Len(t, modules, 3)

	assert.Equal(t, models.KindFuzzing, modules[0].Kind)
	assert.Equal(t, "/dir", modules[0].Endpoint)
	assert.Equal(t, "/escanear", modules[1].Endpoint)
	assert.Equal(t, "/whois", modules[2].Endpoint)
	assert.Equal(t, 5, modules[2].MaxRetries)
	assert.Zero(t, modules[0].MaxRetries)

	defaults := NewConfigService(nil, nil).GetScanModules()
	assert.Equal(t, 3, defaults[2].MaxRetries)
}
