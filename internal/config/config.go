package config

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Options struct {
	runAddr     string
	logLevel    string
	dataBaseDSN string
	sitesFile   string
	cacheTTL    time.Duration
	cronToken   string
}

func NewOptions() *Options {
	return new(Options)
}

// ParseFlags handles command line arguments
// and stores their values in the corresponding variables.
func (o *Options) ParseFlags() {
	// Load environment variables from the .env file
	loadEnvFile()

	// Override variable values with values from command line flags
	regStringVar(&o.runAddr, "a", getEnvOrDefault("RUN_ADDRESS", ":8080"), "address and port to run server")
	regStringVar(&o.logLevel, "l", getEnvOrDefault("LOG_LEVEL", "info"), "log level")
	regStringVar(&o.dataBaseDSN, "d", getEnvOrDefault("DATABASE_URI", ""), "database connection string for click analytics")
	regStringVar(&o.sitesFile, "s", getEnvOrDefault("SITES_FILE", "sites.yaml"), "path to the tenant sites file")
	regStringVar(&o.cronToken, "t", getEnvOrDefault("CRON_TOKEN", ""), "bearer token guarding the publish sweep endpoint")

	ttl := getEnvOrDefault("CACHE_TTL", "5m")
	flag.DurationVar(&o.cacheTTL, "c", mustParseDuration(ttl), "catalog cache TTL")

	// parse the arguments passed to the server into registered variables
	flag.Parse()
}

func (o *Options) RunAddr() string {
	return o.runAddr
}

func (o *Options) LogLevel() string {
	return o.logLevel
}

func (o *Options) DataBaseDSN() string {
	return o.dataBaseDSN
}

func (o *Options) SitesFile() string {
	return o.sitesFile
}

func (o *Options) CacheTTL() time.Duration {
	return o.cacheTTL
}

func (o *Options) CronToken() string {
	return o.cronToken
}

func regStringVar(p *string, name string, value string, usage string) {
	flag.StringVar(p, name, value, usage)
}

// getEnvOrDefault reads an environment variable or returns a default value if the variable is not set or is empty.
func getEnvOrDefault(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func mustParseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// loadEnvFile loads environment variables from a .env file in the working directory
func loadEnvFile() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, proceeding without it")
	}
}
