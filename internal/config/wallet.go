package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// WalletConfig holds the product policy around balance mutations.
type WalletConfig struct {
	MinRecharge         decimal.Decimal
	MaxRecharge         decimal.Decimal
	MaxTransaction      decimal.Decimal
	HistoryDefaultLimit int
	HistoryMaxLimit     int
	LockTimeout         time.Duration
	MealPrice           decimal.Decimal
	TicketTTL           time.Duration
	IdempotencyTTL      time.Duration
}

func LoadWalletConfig() *WalletConfig {
	viper.SetDefault("wallet.history_default_limit", 10)
	viper.SetDefault("wallet.history_max_limit", 50)
	viper.SetDefault("wallet.lock_timeout", 5*time.Second)
	viper.SetDefault("wallet.ticket_ttl", 10*time.Minute)
	viper.SetDefault("wallet.idempotency_ttl", 24*time.Hour)

	return &WalletConfig{
		MinRecharge:         getDecimal("wallet.min_recharge", decimal.NewFromInt(1)),
		MaxRecharge:         getDecimal("wallet.max_recharge", decimal.NewFromInt(1000)),
		MaxTransaction:      getDecimal("wallet.max_transaction", decimal.NewFromInt(1000)),
		HistoryDefaultLimit: viper.GetInt("wallet.history_default_limit"),
		HistoryMaxLimit:     viper.GetInt("wallet.history_max_limit"),
		LockTimeout:         viper.GetDuration("wallet.lock_timeout"),
		MealPrice:           getDecimal("wallet.meal_price", decimal.NewFromInt(5)),
		TicketTTL:           viper.GetDuration("wallet.ticket_ttl"),
		IdempotencyTTL:      viper.GetDuration("wallet.idempotency_ttl"),
	}
}

// Validate rejects settings that would make the wallet unusable.
func (c *WalletConfig) Validate() error {
	switch {
	case !c.MinRecharge.IsPositive():
		return fmt.Errorf("wallet.min_recharge must be positive, got %s", c.MinRecharge)
	case c.MinRecharge.GreaterThan(c.MaxRecharge):
		return fmt.Errorf("wallet.min_recharge (%s) exceeds wallet.max_recharge (%s)", c.MinRecharge, c.MaxRecharge)
	case c.MaxTransaction.LessThan(c.MaxRecharge):
		return fmt.Errorf("wallet.max_transaction (%s) is below wallet.max_recharge (%s)", c.MaxTransaction, c.MaxRecharge)
	case !c.MealPrice.IsPositive() || c.MealPrice.GreaterThan(c.MaxTransaction):
		return fmt.Errorf("wallet.meal_price must be in (0, %s], got %s", c.MaxTransaction, c.MealPrice)
	case c.HistoryMaxLimit <= 0:
		return fmt.Errorf("wallet.history_max_limit must be positive, got %d", c.HistoryMaxLimit)
	case c.HistoryDefaultLimit <= 0 || c.HistoryDefaultLimit > c.HistoryMaxLimit:
		return fmt.Errorf("wallet.history_default_limit must be in [1, %d], got %d", c.HistoryMaxLimit, c.HistoryDefaultLimit)
	case c.LockTimeout < 0:
		return fmt.Errorf("wallet.lock_timeout must not be negative, got %s", c.LockTimeout)
	case c.TicketTTL <= 0 || c.IdempotencyTTL <= 0:
		return fmt.Errorf("wallet.ticket_ttl and wallet.idempotency_ttl must be positive")
	}
	return nil
}

// RatingConfig holds the score scale for meal ratings.
type RatingConfig struct {
	MinScore         int
	MaxScore         int
	MaxCommentLength int
}

func LoadRatingConfig() *RatingConfig {
	viper.SetDefault("rating.min_score", 1)
	viper.SetDefault("rating.max_score", 5)
	viper.SetDefault("rating.max_comment_length", 1000)

	return &RatingConfig{
		MinScore:         viper.GetInt("rating.min_score"),
		MaxScore:         viper.GetInt("rating.max_score"),
		MaxCommentLength: viper.GetInt("rating.max_comment_length"),
	}
}

// AuthConfig covers token issuance, password hashing and login throttling.
type AuthConfig struct {
	JWTSecret        string
	JWTExpiry        time.Duration
	BcryptCost       int
	MaxLoginAttempts int
	LockoutWindow    time.Duration
	ResetTokenTTL    time.Duration
	AppURL           string
}

func LoadAuthConfig() *AuthConfig {
	viper.SetDefault("auth.jwt_expiration", 86400)
	viper.SetDefault("auth.bcrypt_cost", 12)
	viper.SetDefault("auth.max_login_attempts", 5)
	viper.SetDefault("auth.lockout_window", 15*time.Minute)
	viper.SetDefault("auth.reset_token_ttl", time.Hour)
	viper.SetDefault("auth.app_url", "http://localhost:8080")

	return &AuthConfig{
		JWTSecret:        viper.GetString("auth.jwt_secret"),
		JWTExpiry:        time.Duration(viper.GetInt64("auth.jwt_expiration")) * time.Second,
		BcryptCost:       viper.GetInt("auth.bcrypt_cost"),
		MaxLoginAttempts: viper.GetInt("auth.max_login_attempts"),
		LockoutWindow:    viper.GetDuration("auth.lockout_window"),
		ResetTokenTTL:    viper.GetDuration("auth.reset_token_ttl"),
		AppURL:           viper.GetString("auth.app_url"),
	}
}
