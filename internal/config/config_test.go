package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestLoadWalletConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		viper.Reset()
		cfg := LoadWalletConfig()

		assert.True(t, cfg.MinRecharge.Equal(decimal.NewFromInt(1)))
		assert.True(t, cfg.MaxRecharge.Equal(decimal.NewFromInt(1000)))
		assert.Equal(t, 10, cfg.HistoryDefaultLimit)
		assert.Equal(t, 50, cfg.HistoryMaxLimit)
		assert.Equal(t, 5*time.Second, cfg.LockTimeout)
	})

	t.Run("overrides", func(t *testing.T) {
		viper.Reset()
		viper.Set("wallet.min_recharge", "2.50")
		viper.Set("wallet.max_recharge", "500")
		viper.Set("wallet.history_max_limit", 20)

		cfg := LoadWalletConfig()

		assert.Equal(t, "2.5", cfg.MinRecharge.String())
		assert.Equal(t, "500", cfg.MaxRecharge.String())
		assert.Equal(t, 20, cfg.HistoryMaxLimit)
	})

	t.Run("invalid decimal falls back", func(t *testing.T) {
		viper.Reset()
		viper.Set("wallet.meal_price", "abc")

		cfg := LoadWalletConfig()

		assert.True(t, cfg.MealPrice.Equal(decimal.NewFromInt(5)))
	})
}

func TestLoadWalletConfig_ExtremeExponentFallsBack(t *testing.T) {
	viper.Reset()
	viper.Set("wallet.max_recharge", "1e-100000000")

	cfg := LoadWalletConfig()

	assert.True(t, cfg.MaxRecharge.Equal(decimal.NewFromInt(1000)))
}

func TestWalletConfig_Validate(t *testing.T) {
	viper.Reset()
	assert.NoError(t, LoadWalletConfig().Validate())

	cases := []struct {
		name   string
		mutate func(c *WalletConfig)
	}{
		{"min above max", func(c *WalletConfig) { c.MinRecharge = decimal.NewFromInt(2000) }},
		{"non-positive min", func(c *WalletConfig) { c.MinRecharge = decimal.Zero }},
		{"transaction cap below recharge cap", func(c *WalletConfig) { c.MaxTransaction = decimal.NewFromInt(500) }},
		{"zero history max", func(c *WalletConfig) { c.HistoryMaxLimit = 0 }},
		{"default above max", func(c *WalletConfig) { c.HistoryDefaultLimit = 100 }},
		{"zero meal price", func(c *WalletConfig) { c.MealPrice = decimal.Zero }},
		{"negative lock timeout", func(c *WalletConfig) { c.LockTimeout = -time.Second }},
		{"zero ticket ttl", func(c *WalletConfig) { c.TicketTTL = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			viper.Reset()
			cfg := LoadWalletConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("history max from environment", func(t *testing.T) {
		viper.Reset()
		viper.Set("wallet.history_max_limit", 0)
		assert.Error(t, LoadWalletConfig().Validate())
	})
}

func TestLoadAuthConfig(t *testing.T) {
	viper.Reset()
	viper.Set("auth.jwt_secret", "s3cret")
	viper.Set("auth.jwt_expiration", 3600)

	cfg := LoadAuthConfig()

	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 5, cfg.MaxLoginAttempts)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, splitList(" a:9092, ,b:9092 "))
	assert.Nil(t, splitList(""))
}

func TestServerConfig_IsDevelopment(t *testing.T) {
	viper.Reset()
	viper.Set("server.env", "development")
	assert.True(t, LoadServerConfig().IsDevelopment())

	viper.Set("server.env", "production")
	assert.False(t, LoadServerConfig().IsDevelopment())
}
