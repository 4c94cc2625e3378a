package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg := FromViper(v)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "mock", cfg.DataSource.Mode)
	assert.False(t, cfg.Live())
	assert.Equal(t, 5000, cfg.SellerDynamics.PageSize)
	assert.Equal(t, time.Minute, cfg.SellerDynamics.MinInterval())
	assert.Equal(t, 1.5, cfg.Restock.SafetyStockMultiplier)
	assert.Equal(t, 50.0, cfg.Restock.OrderingCost)
	assert.Equal(t, 0.2, cfg.Restock.HoldingCostRate)
	assert.Equal(t, 20, cfg.Restock.DefaultReorderQuantity)
	assert.Equal(t, 10, cfg.Restock.AlertThreshold)
	assert.Equal(t, "restock.notifications", cfg.Messaging.Queue)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("DATA_SOURCE_MODE", "live")
	t.Setenv("SELLERDYNAMICS_MIN_INTERVAL_SECONDS", "5")
	t.Setenv("RESTOCK_ORDERING_COST", "75.5")

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	cfg := FromViper(v)

	assert.True(t, cfg.Live())
	assert.Equal(t, 5*time.Second, cfg.SellerDynamics.MinInterval())
	assert.Equal(t, 75.5, cfg.Restock.OrderingCost)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable"}

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", d.DSN())
}
