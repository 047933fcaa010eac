package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env        string
	Addr       string
	PublicURL  *url.URL
	DBDSN      string
	SecretKey  string
	SessionTTL time.Duration
	LogLevel   string

	UploadDir         string
	ImageMaxSizePx    int
	ThumbnailSizePx   int
	MaxUploadMB       int
	LocationsPerPage  int
	ItemsPerPage      int
	InvitationTTL     time.Duration
	ResetTTL          time.Duration
	LoginRatePer5Min  int
	GeolocationURL    string
	MailFrom          string
	MailSubjectPrefix string
	SMTP              SMTPConfig
	AMQPURL           string
	Redis             RedisConfig
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	TLSMode  string
}

func (c SMTPConfig) Enabled() bool { return c.Host != "" }

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// Load reads an optional .env file (APP_ENV_FILE, default ".env") without
// overriding variables that are already set, then parses the environment.
func Load() (Config, error) {
	path := os.Getenv("APP_ENV_FILE")
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := loadDotEnvFile(path, os.Setenv, os.Getenv); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("APP_ENV_FILE: %w", err)
		}
	}
	return LoadFromEnv(os.Getenv)
}

func loadDotEnvFile(path string, setenv func(string, string) error, getenv func(string) string) error {
	values, err := godotenv.Read(path)
	if err != nil {
		return err
	}
	for k, v := range values {
		if v == "" || getenv(k) != "" {
			continue
		}
		if err := setenv(k, v); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	return nil
}

func LoadFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Env:               getenv("APP_ENV"),
		Addr:              getenv("APP_ADDR"),
		DBDSN:             getenv("APP_DB_DSN"),
		LogLevel:          getenv("APP_LOG_LEVEL"),
		SecretKey:         getenv("APP_SECRET_KEY"),
		UploadDir:         getenv("APP_UPLOAD_DIR"),
		GeolocationURL:    getenv("APP_GEOLOCATION_URL"),
		MailFrom:          getenv("APP_MAIL_FROM"),
		MailSubjectPrefix: getenv("APP_MAIL_SUBJECT_PREFIX"),
		AMQPURL:           strings.TrimSpace(getenv("APP_AMQP_URL")),
	}

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "data/uploads"
	}
	if cfg.GeolocationURL == "" {
		cfg.GeolocationURL = "https://geolocation-db.com/json/"
	}
	if cfg.MailFrom == "" {
		cfg.MailFrom = "noreply@hiddenplaces.local"
	}
	if cfg.MailSubjectPrefix == "" {
		cfg.MailSubjectPrefix = "[HiddenPlaces]"
	}

	switch cfg.Env {
	case "dev", "prod", "test":
	default:
		return Config{}, errors.New("APP_ENV: must be one of dev, test, prod")
	}

	publicURLRaw := getenv("APP_PUBLIC_URL")
	if publicURLRaw != "" {
		parsed, err := url.Parse(publicURLRaw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_PUBLIC_URL: %w", err)
		}
		if !parsed.IsAbs() || parsed.Host == "" {
			return Config{}, errors.New("APP_PUBLIC_URL: must be an absolute URL")
		}
		switch parsed.Scheme {
		case "http", "https":
		default:
			return Config{}, errors.New("APP_PUBLIC_URL: scheme must be http or https")
		}
		parsed.Path = strings.TrimRight(parsed.Path, "/")
		cfg.PublicURL = parsed
	}

	var err error
	if cfg.SessionTTL, err = durationVar(getenv, "APP_SESSION_TTL", 30*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.InvitationTTL, err = durationVar(getenv, "APP_INVITATION_TTL", 30*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.ResetTTL, err = durationVar(getenv, "APP_RESET_TTL", 60*time.Minute); err != nil {
		return Config{}, err
	}

	ints := []struct {
		name string
		dst  *int
		def  int
	}{
		{"APP_IMAGE_MAX_SIZE_PX", &cfg.ImageMaxSizePx, 1920},
		{"APP_THUMBNAIL_SIZE_PX", &cfg.ThumbnailSizePx, 256},
		{"APP_MAX_UPLOAD_MB", &cfg.MaxUploadMB, 32},
		{"APP_LOCATIONS_PER_PAGE", &cfg.LocationsPerPage, 20},
		{"APP_ITEMS_PER_PAGE", &cfg.ItemsPerPage, 30},
		{"APP_LOGIN_RATE", &cfg.LoginRatePer5Min, 10},
		{"APP_SMTP_PORT", &cfg.SMTP.Port, 587},
	}
	for _, iv := range ints {
		if *iv.dst, err = positiveIntVar(getenv, iv.name, iv.def); err != nil {
			return Config{}, err
		}
	}

	cfg.SMTP.Host = strings.TrimSpace(getenv("APP_SMTP_HOST"))
	cfg.SMTP.Username = getenv("APP_SMTP_USERNAME")
	cfg.SMTP.Password = getenv("APP_SMTP_PASSWORD")
	cfg.SMTP.TLSMode = strings.ToLower(strings.TrimSpace(getenv("APP_SMTP_TLS_MODE")))
	switch cfg.SMTP.TLSMode {
	case "":
		cfg.SMTP.TLSMode = "starttls"
	case "starttls", "tls", "plain":
	default:
		return Config{}, errors.New("APP_SMTP_TLS_MODE: must be one of starttls, tls, plain")
	}

	cfg.Redis.Addr = strings.TrimSpace(getenv("APP_REDIS_ADDR"))
	cfg.Redis.Password = getenv("APP_REDIS_PASSWORD")
	if raw := getenv("APP_REDIS_DB"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Config{}, errors.New("APP_REDIS_DB: must be a non-negative integer")
		}
		cfg.Redis.DB = n
	}

	if cfg.IsProd() {
		if cfg.PublicURL == nil {
			return Config{}, errors.New("APP_PUBLIC_URL: required in prod")
		}
		if cfg.DBDSN == "" {
			return Config{}, errors.New("APP_DB_DSN: required in prod")
		}
		if len(cfg.SecretKey) < 32 {
			return Config{}, errors.New("APP_SECRET_KEY: must be at least 32 bytes in prod")
		}
	}

	return cfg, nil
}

func (c Config) IsProd() bool { return c.Env == "prod" }

func (c Config) CookieSecure() bool {
	if c.PublicURL != nil {
		return c.PublicURL.Scheme == "https"
	}
	return c.IsProd()
}

// BaseURL is the absolute prefix used for links sent by email.
func (c Config) BaseURL() string {
	if c.PublicURL != nil {
		return c.PublicURL.String()
	}
	return "http://" + c.Addr
}

// GeolocationEnabled is false when APP_GEOLOCATION_URL is "off".
func (c Config) GeolocationEnabled() bool { return c.GeolocationURL != "off" }

func durationVar(getenv func(string) string, name string, def time.Duration) (time.Duration, error) {
	raw := getenv(name)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be > 0", name)
	}
	return d, nil
}

func positiveIntVar(getenv func(string) string, name string, def int) (int, error) {
	raw := strings.TrimSpace(getenv(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s: must be > 0", name)
	}
	return n, nil
}
