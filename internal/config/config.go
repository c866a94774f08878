package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Store backends selectable through STORE_BACKEND
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config holds the process configuration read from the environment
type Config struct {
	Port         string `env:"PORT,default=5000" description:"HTTP listen port"`
	DBUser       string `env:"DB_USER" description:"MongoDB username"`
	DBPass       string `env:"DB_PASS" description:"MongoDB password"`
	DBHost       string `env:"DB_HOST,default=cluster0.qtoag.mongodb.net" description:"MongoDB Atlas cluster host"`
	DBName       string `env:"DB_NAME,default=Teletale" description:"database holding the collections"`
	MongoURI     string `env:"MONGODB_URI" description:"full connection string, overrides DB_USER/DB_PASS/DB_HOST"`
	LogLevel     string `env:"LOG_LEVEL,default=info" description:"debug, info, warn or error"`
	StoreBackend string `env:"STORE_BACKEND,default=mongo" description:"mongo or memory"`
}

// Load reads an optional .env file and decodes the environment
func Load(files ...string) (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load(files...)

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected store backend has what it needs
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreMemory:
		return nil
	case StoreMongo:
		if c.MongoURI == "" && (c.DBUser == "" || c.DBPass == "") {
			return errors.New("DB_USER and DB_PASS are required when MONGODB_URI is not set")
		}
		return nil
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
}

// MongoConnectionURI returns MONGODB_URI when set, otherwise the Atlas SRV
// connection string built from the credentials
func (c *Config) MongoConnectionURI() string {
	if c.MongoURI != "" {
		return c.MongoURI
	}
	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(c.DBUser, c.DBPass),
		Host:     c.DBHost,
		Path:     "/" + c.DBName,
		RawQuery: "retryWrites=true&w=majority",
	}
	return u.String()
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + c.Port
}
