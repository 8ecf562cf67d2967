package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Payment   PaymentConfig
	Gateway   GatewayConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Printer   PrinterConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

// PaymentConfig holds the payment engine settings. Immutable once the
// engine is built; changing them requires an explicit engine reset.
type PaymentConfig struct {
	// PosID identifies this point-of-sale install. It must be persistent
	// so offline transactions can be located on the next launch.
	PosID                string
	RegistrationUsername string
	RegistrationPassword string
	PeripheralSerial     string
	TransactionTimeout   time.Duration
	SignatureTimeout     time.Duration
	AutoUploadInterval   time.Duration
	QueueWhenOffline     bool
	// Services lists the merchant services configured for the tenant.
	// A transaction may leave the service unset only when exactly one is configured.
	Services []string
}

type GatewayConfig struct {
	BaseURL      string
	Environment  string // "test" or "production"
	ClientID     string
	ClientSecret string
	TokenURL     string
	Timeout      time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours time.Duration
	// OperatorPasswordHash is the bcrypt hash the login endpoint checks
	// operator credentials against.
	OperatorUsername     string
	OperatorPasswordHash string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

type PrinterConfig struct {
	Type    string // "usb", "network" or "none"
	USBPath string
	Address string
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	// Set defaults
	viper.SetDefault("APP_NAME", "paypoint")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("POS_ID", "")
	viper.SetDefault("REGISTRATION_USERNAME", "")
	viper.SetDefault("REGISTRATION_PASSWORD", "")
	viper.SetDefault("PERIPHERAL_SERIAL", "QPR250-DEMO")
	viper.SetDefault("TRANSACTION_TIMEOUT_SECONDS", 60)
	viper.SetDefault("SIGNATURE_TIMEOUT_SECONDS", 60)
	viper.SetDefault("AUTO_UPLOAD_INTERVAL_SECONDS", 60)
	viper.SetDefault("QUEUE_WHEN_OFFLINE", true)
	viper.SetDefault("PAYMENT_SERVICES", []string{})
	viper.SetDefault("GATEWAY_BASE_URL", "https://api.test.paygate.example.com")
	viper.SetDefault("GATEWAY_ENVIRONMENT", "test")
	viper.SetDefault("GATEWAY_CLIENT_ID", "")
	viper.SetDefault("GATEWAY_CLIENT_SECRET", "")
	viper.SetDefault("GATEWAY_TOKEN_URL", "")
	viper.SetDefault("GATEWAY_TIMEOUT_SECONDS", 30)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "paypoint")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "Africa/Nairobi")
	viper.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	viper.SetDefault("JWT_EXPIRY_HOURS", 24)
	viper.SetDefault("OPERATOR_USERNAME", "operator")
	viper.SetDefault("OPERATOR_PASSWORD_HASH", "")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
	viper.SetDefault("PRINTER_TYPE", "none")
	viper.SetDefault("PRINTER_USB_PATH", "/dev/usb/lp0")
	viper.SetDefault("PRINTER_ADDRESS", "")

	return &Config{
		App: AppConfig{
			Name:  viper.GetString("APP_NAME"),
			Env:   viper.GetString("APP_ENV"),
			Port:  viper.GetString("APP_PORT"),
			Debug: viper.GetBool("APP_DEBUG"),
		},
		Payment: PaymentConfig{
			PosID:                viper.GetString("POS_ID"),
			RegistrationUsername: viper.GetString("REGISTRATION_USERNAME"),
			RegistrationPassword: viper.GetString("REGISTRATION_PASSWORD"),
			PeripheralSerial:     viper.GetString("PERIPHERAL_SERIAL"),
			TransactionTimeout:   time.Duration(viper.GetInt("TRANSACTION_TIMEOUT_SECONDS")) * time.Second,
			SignatureTimeout:     time.Duration(viper.GetInt("SIGNATURE_TIMEOUT_SECONDS")) * time.Second,
			AutoUploadInterval:   time.Duration(viper.GetInt("AUTO_UPLOAD_INTERVAL_SECONDS")) * time.Second,
			QueueWhenOffline:     viper.GetBool("QUEUE_WHEN_OFFLINE"),
			Services:             viper.GetStringSlice("PAYMENT_SERVICES"),
		},
		Gateway: GatewayConfig{
			BaseURL:      viper.GetString("GATEWAY_BASE_URL"),
			Environment:  viper.GetString("GATEWAY_ENVIRONMENT"),
			ClientID:     viper.GetString("GATEWAY_CLIENT_ID"),
			ClientSecret: viper.GetString("GATEWAY_CLIENT_SECRET"),
			TokenURL:     viper.GetString("GATEWAY_TOKEN_URL"),
			Timeout:      time.Duration(viper.GetInt("GATEWAY_TIMEOUT_SECONDS")) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			Timezone: viper.GetString("DB_TIMEZONE"),
		},
		JWT: JWTConfig{
			Secret:               viper.GetString("JWT_SECRET"),
			ExpiryHours:          time.Duration(viper.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
			OperatorUsername:     viper.GetString("OPERATOR_USERNAME"),
			OperatorPasswordHash: viper.GetString("OPERATOR_PASSWORD_HASH"),
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
		Printer: PrinterConfig{
			Type:    viper.GetString("PRINTER_TYPE"),
			USBPath: viper.GetString("PRINTER_USB_PATH"),
			Address: viper.GetString("PRINTER_ADDRESS"),
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}
