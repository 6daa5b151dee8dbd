package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	PostgresURL          string `env:"POSTGRES_URL,required"`
	RedisAddr            string `env:"REDIS_ADDR,required"`
	OrdersAPIURL         string `env:"ORDERS_API_URL,required"`
	OrdersConsumerKey    string `env:"ORDERS_CONSUMER_KEY,required"`
	OrdersConsumerSecret string `env:"ORDERS_CONSUMER_SECRET,required"`
	JWTSecret            string `env:"JWT_SECRET,required"`
}

func Parse() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parsing env: %w", err)
	}
	return c, nil
}
