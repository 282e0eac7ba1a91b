// config.go
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:3000"`

	HTTP    HTTPServer `envPrefix:"HTTP_"`
	Mongo   Mongo      `envPrefix:"MONGO_"`
	Redis   Redis      `envPrefix:"REDIS_"`
	Rabbit  Rabbit     `envPrefix:"RABBIT_"`
	Stripe  Stripe     `envPrefix:"STRIPE_"`
	Auth    Auth
	Google  Google  `envPrefix:"GOOGLE_"`
	Pricing Pricing `envPrefix:"PRICING_"`
}

type HTTPServer struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Vacío: no se confía en X-Forwarded-For y la IP es la del socket.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

type Mongo struct {
	URI    string `env:"URI" envDefault:"mongodb://localhost:27017"`
	DBName string `env:"DB_NAME" envDefault:"storefront"`
}

// Redis vacío desactiva la caché de productos.
type Redis struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// Rabbit vacío desactiva publicación y consumo de eventos.
type Rabbit struct {
	URL string `env:"URL"`
}

type Stripe struct {
	SecretKey     string `env:"SECRET_KEY,required,notEmpty"`
	WebhookSecret string `env:"WEBHOOK_SECRET,required,notEmpty"`
	Currency      string `env:"CURRENCY" envDefault:"usd"`
}

type Auth struct {
	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"720h"`
}

type Google struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL" envDefault:"http://localhost:8080/auth/google/callback"`
}

type Pricing struct {
	TaxRate               float64 `env:"TAX_RATE" envDefault:"0.08"`
	FreeShippingThreshold float64 `env:"FREE_SHIPPING_THRESHOLD" envDefault:"100"`
	FlatShippingFee       float64 `env:"FLAT_SHIPPING_FEE" envDefault:"9.99"`
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func Load() (*Config, error) {
	// El .env es opcional: en contenedores las variables ya vienen del entorno.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
