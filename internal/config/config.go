package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds the runtime settings of the mock booking backend.
// Secrets are required; everything else falls back to a development
// default.
type ServerConfig struct {
	Env          string        // application environment (e.g. "dev", "prod")
	Port         string        // HTTP port to listen on
	JWTSecret    string        // secret used to sign access tokens
	AccessTTLMin int           // access token time-to-live in minutes
	BcryptCost   int           // bcrypt cost for the seeded passwords
	HoldTTL      time.Duration // how long a seat hold lasts
	DemoEmail    string        // seeded customer login
	DemoPassword string        // seeded customer password
	VNPayURL     string        // VNPay sandbox payment page
	MoMoURL      string        // MoMo sandbox payment page
	ZaloPayURL   string        // ZaloPay sandbox payment page
	ReturnURL    string        // where gateways send the customer back
	RabbitURL    string        // AMQP URL for hold lifecycle events (optional)
	EventQueue   string        // queue name for hold lifecycle events
	EventLogPath string        // file the event consumer appends to
}

// ClientConfig holds the settings of the booking client CLI.
type ClientConfig struct {
	Env          string
	APIBaseURL   string        // booking backend base URL
	APITimeout   time.Duration // per request timeout
	StoreDriver  string        // memory | file | redis | mysql
	StoreDir     string        // directory used by the file store
	TickInterval time.Duration // countdown tick
	CacheTTL     time.Duration // availability read cache lifetime
	RabbitURL    string        // AMQP URL for hold lifecycle events (optional)
	EventQueue   string
	DB           DBConfig
}

// DBConfig carries the MySQL connection parts for the mysql store driver.
type DBConfig struct {
	User string
	Pass string
	Host string
	Port string
	Name string
}

const (
	// DefaultEventQueue is the durable queue hold lifecycle events go to.
	DefaultEventQueue = "seat.hold.events"
)

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding values that are already set.  Missing
// files are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			log.Printf("config: cannot load %s: %v", f, err)
		}
	}
}

// LoadServer reads the backend configuration.  JWT_SECRET is required
// and a missing value stops the process.
func LoadServer() ServerConfig {
	return ServerConfig{
		Env:          envStr("APP_ENV", "dev"),
		Port:         envStr("APP_PORT", "8080"),
		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 60),
		BcryptCost:   envInt("BCRYPT_COST", 10),
		HoldTTL:      envDur("HOLD_TTL", 10*time.Minute),
		DemoEmail:    envStr("DEMO_EMAIL", "khach@vexeviet.vn"),
		DemoPassword: envStr("DEMO_PASSWORD", "vexeviet123"),
		VNPayURL:     envStr("VNPAY_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
		MoMoURL:      envStr("MOMO_URL", "https://test-payment.momo.vn/v2/gateway/pay"),
		ZaloPayURL:   envStr("ZALOPAY_URL", "https://sbgateway.zalopay.vn/openinapp"),
		ReturnURL:    envStr("PAYMENT_RETURN_URL", "http://localhost:3000/payment/return"),
		RabbitURL:    os.Getenv("RABBITMQ_URL"),
		EventQueue:   envStr("HOLD_EVENT_QUEUE", DefaultEventQueue),
		EventLogPath: envStr("HOLD_EVENT_LOG", "logs/hold_events.log"),
	}
}

// LoadClient reads the booking client configuration.
func LoadClient() ClientConfig {
	return ClientConfig{
		Env:          envStr("APP_ENV", "dev"),
		APIBaseURL:   envStr("VEXEVIET_API_URL", "http://localhost:8080"),
		APITimeout:   envDur("API_TIMEOUT", 10*time.Second),
		StoreDriver:  envStr("STORE_DRIVER", "file"),
		StoreDir:     envStr("STORE_DIR", ".vexeviet"),
		TickInterval: envDur("HOLD_TICK_INTERVAL", time.Second),
		CacheTTL:     envDur("AVAILABILITY_CACHE_TTL", 30*time.Second),
		RabbitURL:    os.Getenv("RABBITMQ_URL"),
		EventQueue:   envStr("HOLD_EVENT_QUEUE", DefaultEventQueue),
		DB: DBConfig{
			User: envStr("DB_USER", "root"),
			Pass: os.Getenv("DB_PASS"),
			Host: envStr("DB_HOST", "127.0.0.1"),
			Port: envStr("DB_PORT", "3306"),
			Name: envStr("DB_NAME", "vexeviet"),
		},
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
