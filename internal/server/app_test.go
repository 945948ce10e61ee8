package server

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/organlink/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApp_DatabaseUnavailable(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.LogFormat = "text"
	cfg.DatabaseDSN = "postgres://u:p@127.0.0.1:1/organlink?sslmode=disable&connect_timeout=1"

	app, err := NewApp(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, app)
	assert.Contains(t, err.Error(), "db init error")
}
