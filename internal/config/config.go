package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Port     string
	LogLevel string

	StorageBackend      string
	PostgresAddress     string
	PostgresPort        string
	PostgresDB          string
	PostgresUsername    string
	PostgresPassword    string
	PostgresAutoMigrate bool

	OperatorWorkers int

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	GeminiAPIKey           string
	AssistantModel         string
	ExchangeRateUSDPEN     float64
	AssistantRatePerMinute int
}

// LoadDotEnv reads a .env file into the environment when one exists.
// Variables already set in the environment win.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("config.LoadDotEnv")
	}
}

func ProcessEnvironmentVariables() (*Config, error) {
	// In all cases the default behavior should be for the docker compose setup
	env := Config{
		Port:     "9446",
		LogLevel: "info",

		StorageBackend:   StoragePostgres,
		PostgresAddress:  "localhost",
		PostgresPort:     "5433",
		PostgresDB:       "postgres",
		PostgresUsername: "postgres",
		PostgresPassword: "testpassword",

		OperatorWorkers: 4,

		AMQPExchange: "finance",
		AMQPQueue:    "transactions.recorded",

		AssistantModel:         "gemini-2.5-flash",
		ExchangeRateUSDPEN:     3.67,
		AssistantRatePerMinute: 30,
	}

	var errs []error

	setString(&env.Port, "PORT")
	setString(&env.LogLevel, "LOG_LEVEL")
	setString(&env.StorageBackend, "STORAGE_BACKEND")
	setString(&env.PostgresAddress, "POSTGRES_ADDRESS")
	setString(&env.PostgresPort, "POSTGRES_PORT")
	setString(&env.PostgresDB, "POSTGRES_DB")
	setString(&env.PostgresUsername, "POSTGRES_USERNAME")
	setString(&env.PostgresPassword, "POSTGRES_PASSWORD")
	errs = append(errs, setBool(&env.PostgresAutoMigrate, "POSTGRES_AUTO_MIGRATE"))
	errs = append(errs, setInt(&env.OperatorWorkers, "OPERATOR_WORKERS"))
	setString(&env.AMQPURL, "AMQP_URL")
	setString(&env.AMQPExchange, "AMQP_EXCHANGE")
	setString(&env.AMQPQueue, "AMQP_QUEUE")
	setString(&env.GeminiAPIKey, "GOOGLE_API_KEY")
	setString(&env.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&env.AssistantModel, "ASSISTANT_MODEL")
	errs = append(errs, setFloat(&env.ExchangeRateUSDPEN, "USD_PEN_RATE"))
	errs = append(errs, setInt(&env.AssistantRatePerMinute, "ASSISTANT_RATE_PER_MINUTE"))

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return &env, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.StorageBackend != StoragePostgres && c.StorageBackend != StorageMemory {
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", StoragePostgres, StorageMemory, c.StorageBackend))
	}
	if c.OperatorWorkers < 1 {
		errs = append(errs, errors.New("OPERATOR_WORKERS must be at least 1"))
	}
	if c.ExchangeRateUSDPEN <= 0 {
		errs = append(errs, errors.New("USD_PEN_RATE must be positive"))
	}
	if c.AssistantRatePerMinute < 1 {
		errs = append(errs, errors.New("ASSISTANT_RATE_PER_MINUTE must be at least 1"))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	return errors.Join(errs...)
}

func (c *Config) PostgresURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUsername, c.PostgresPassword),
		Host:     c.PostgresAddress + ":" + c.PostgresPort,
		Path:     "/" + c.PostgresDB,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// ClientConfig configures finance-client.
type ClientConfig struct {
	APIBaseURL       string
	RequestTimeout   time.Duration
	AssistantTimeout time.Duration
	SpeechKey        string
	SpeechRegion     string
	LogLevel         string
}

func ProcessClientEnvironment() (*ClientConfig, error) {
	env := ClientConfig{
		APIBaseURL:       "http://localhost:9446",
		RequestTimeout:   10 * time.Second,
		AssistantTimeout: 60 * time.Second,
		LogLevel:         "warning",
	}

	setString(&env.APIBaseURL, "FINANCE_API_URL")
	setString(&env.SpeechKey, "AZURE_SPEECH_KEY")
	setString(&env.SpeechRegion, "AZURE_SPEECH_REGION")
	setString(&env.LogLevel, "LOG_LEVEL")
	err := errors.Join(
		setDuration(&env.RequestTimeout, "REQUEST_TIMEOUT"),
		setDuration(&env.AssistantTimeout, "ASSISTANT_TIMEOUT"),
	)
	if err != nil {
		return nil, err
	}
	if _, err := url.ParseRequestURI(env.APIBaseURL); err != nil {
		return nil, fmt.Errorf("FINANCE_API_URL: %w", err)
	}
	return &env, nil
}

func setString(field *string, name string) {
	if value := os.Getenv(name); len(value) != 0 {
		*field = value
	}
}

func setInt(field *int, name string) error {
	value := os.Getenv(name)
	if len(value) == 0 {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*field = parsed
	return nil
}

func setFloat(field *float64, name string) error {
	value := os.Getenv(name)
	if len(value) == 0 {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*field = parsed
	return nil
}

func setBool(field *bool, name string) error {
	value := os.Getenv(name)
	if len(value) == 0 {
		return nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*field = parsed
	return nil
}

func setDuration(field *time.Duration, name string) error {
	value := os.Getenv(name)
	if len(value) == 0 {
		return nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*field = parsed
	return nil
}
