package config

import (
	"time"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Lock backends.
const (
	LockMemory = "memory"
	LockRedis  = "redis"
)

// Event bus drivers.
const (
	BusMemory = "memory"
	BusKafka  = "kafka"
)

type DB struct {
	Driver   string `envconfig:"DRIVER" default:"memory"`
	Url      string `envconfig:"URL"`
	RowLocks bool   `envconfig:"ROW_LOCKS" default:"true"`
	// AutoMigrate creates or updates tables at startup.
	AutoMigrate     bool          `envconfig:"AUTO_MIGRATE" default:"true"`
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" default:"25"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"1h"`
}

type Lock struct {
	Backend string `envconfig:"BACKEND" default:"memory"`
	// Timeout bounds how long an operation waits for its account locks.
	Timeout time.Duration `envconfig:"TIMEOUT" default:"2s"`
	// TTL is the lease on a Redis lock, so a crashed holder cannot wedge an account.
	TTL           time.Duration `envconfig:"TTL" default:"30s"`
	RetryInterval time.Duration `envconfig:"RETRY_INTERVAL" default:"10ms"`
}

type Redis struct {
	URL          string        `envconfig:"URL" default:"redis://localhost:6379/0"`
	KeyPrefix    string        `envconfig:"KEY_PREFIX" default:"ledger:lock:"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

type Kafka struct {
	Brokers      []string      `envconfig:"BROKERS" default:"localhost:9092"`
	Topic        string        `envconfig:"TOPIC" default:"ledger.transactions"`
	Async        bool          `envconfig:"ASYNC" default:"false"`
	BatchTimeout time.Duration `envconfig:"BATCH_TIMEOUT" default:"10ms"`
}

type EventBus struct {
	Driver string `envconfig:"DRIVER" default:"memory"`
	Kafka  *Kafka `envconfig:"KAFKA"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"json"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[ledger]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

type App struct {
	Env       string     `envconfig:"APP_ENV" default:"development"`
	Server    *Server    `envconfig:"SERVER"`
	Log       *Log       `envconfig:"LOG"`
	DB        *DB        `envconfig:"DATABASE"`
	Lock      *Lock      `envconfig:"LOCK"`
	Redis     *Redis     `envconfig:"REDIS"`
	EventBus  *EventBus  `envconfig:"EVENTBUS"`
	RateLimit *RateLimit `envconfig:"RATE_LIMIT"`
}
