package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultVNPayBaseURL     = "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"
	defaultPaymentExpiry    = "15m"
	defaultStalePaymentsAge = "24h"
)

type Config struct {
	DatabaseURL string
	JWTSecret   string
	HTTPAddr    string

	VNPay VNPayConfig

	KafkaBrokers []string
	RedisAddr    string

	// Bookings whose payment stays PENDING/FAILED longer than this show up
	// in the admin stale-payments report.
	StalePaymentsAfter time.Duration
}

type VNPayConfig struct {
	TmnCode    string
	HashSecret string
	BaseURL    string
	ReturnURL  string
	// Expiry is how long an issued payment URL stays valid at the gateway.
	Expiry time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		HTTPAddr:    envOrDefault("HTTP_ADDR", ":8080"),
		VNPay: VNPayConfig{
			TmnCode:    os.Getenv("VNPAY_TMN_CODE"),
			HashSecret: os.Getenv("VNPAY_HASH_SECRET"),
			BaseURL:    envOrDefault("VNPAY_BASE_URL", defaultVNPayBaseURL),
			ReturnURL:  os.Getenv("VNPAY_RETURN_URL"),
		},
		RedisAddr: os.Getenv("REDIS_ADDR"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	var err error
	if cfg.VNPay.Expiry, err = durationEnv("VNPAY_EXPIRY", defaultPaymentExpiry); err != nil {
		return nil, err
	}
	if cfg.StalePaymentsAfter, err = durationEnv("STALE_PAYMENTS_AFTER", defaultStalePaymentsAge); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envOrDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func durationEnv(name, def string) (time.Duration, error) {
	raw := envOrDefault(name, def)
	if n, err := strconv.Atoi(raw); err == nil {
		// bare numbers are hours, matching how ops configured the original
		return time.Duration(n) * time.Hour, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", name, raw)
	}
	return d, nil
}
