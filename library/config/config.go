package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/Astemirdum/bookshelf/pkg/circuit_breaker"
	"github.com/Astemirdum/bookshelf/pkg/kafka"
	"github.com/Astemirdum/bookshelf/pkg/logger"
	"github.com/Astemirdum/bookshelf/pkg/postgres"
)

type HTTPServer struct {
	Host         string        `envconfig:"LIBRARY_HTTP_HOST" default:"0.0.0.0"`
	Port         string        `envconfig:"LIBRARY_HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"HTTP_READ" default:"10s"`
	WriteTimeout time.Duration `envconfig:"HTTP_WRITE"`
}

type JWT struct {
	Secret string        `envconfig:"JWT_SECRET" required:"true" json:"-"`
	TTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`
}

// Policy holds the borrowing rules shared by every code path.
type Policy struct {
	BorrowPeriod    time.Duration `envconfig:"BORROW_PERIOD" default:"168h"`
	MaxBorrowPeriod time.Duration `envconfig:"MAX_BORROW_PERIOD" default:"720h"`
	// WishlistStrict makes a repeated wishlist add fail instead of succeeding silently.
	WishlistStrict bool `envconfig:"WISHLIST_STRICT" default:"false"`
}

// Admin seeds an administrator account at startup when Email is set.
type Admin struct {
	Email    string `envconfig:"ADMIN_EMAIL"`
	Password string `envconfig:"ADMIN_PASSWORD" json:"-"`
	Name     string `envconfig:"ADMIN_NAME" default:"Administrator"`
}

type Storage struct {
	EbookDir string `envconfig:"EBOOK_DIR" default:"./data/ebooks"`
}

type Config struct {
	Server         HTTPServer
	Database       postgres.DB
	Kafka          kafka.Config
	CircuitBreaker circuit_breaker.Config
	JWT            JWT
	Admin          Admin
	Policy         Policy
	Storage        Storage
	Log            logger.Log
}

var (
	once sync.Once
	cfg  Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		err := envconfig.Process("", &config)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = config
		printConfig(cfg)
	})

	return cfg
}

func printConfig(cfg Config) {
	cfg.Database.Password = ""
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
