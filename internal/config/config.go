package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	StoreDriverFile      = "file"
	StoreDriverPostgres  = "postgres"
	StoreDriverFirestore = "firestore"

	AuthModePasscode = "passcode"
	AuthModeAccounts = "accounts"
)

type AppConfig struct {
	API        *APIConfig        `mapstructure:"api"`
	Gin        *GinConfig        `mapstructure:"gin"`
	Postgres   *PostgresConfig   `mapstructure:"postgres"`
	Store      *StoreConfig      `mapstructure:"store"`
	Auth       *AuthConfig       `mapstructure:"auth"`
	Fundraiser *FundraiserConfig `mapstructure:"fundraiser"`
}

type APIConfig struct {
	Environment        string        `mapstructure:"environment"`
	Port               string        `mapstructure:"port"`
	BaseURL            string        `mapstructure:"base_url"`
	AllowedCORSDomains []string      `mapstructure:"allowed_cors_domains"`
	JWTSigningKey      string        `mapstructure:"jwt_signing_key"`
	JWTTTL             time.Duration `mapstructure:"jwt_ttl"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
	URL      string `mapstructure:"url"`
	// NotifyChannel is the LISTEN/NOTIFY channel used for board changes.
	NotifyChannel string `mapstructure:"notify_channel"`
}

// DSN prefers an explicit URL, as DATABASE_URL does on Heroku.
func (c *PostgresConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DB, c.SSLMode)
}

type StoreConfig struct {
	Driver    string           `mapstructure:"driver"`
	File      *FileStoreConfig `mapstructure:"file"`
	Firestore *FirestoreConfig `mapstructure:"firestore"`
}

type FileStoreConfig struct {
	Dir string `mapstructure:"dir"`
	Key string `mapstructure:"key"`
}

type FirestoreConfig struct {
	ProjectID  string `mapstructure:"project_id"`
	Collection string `mapstructure:"collection"`
}

type AuthConfig struct {
	Mode string `mapstructure:"mode"`

	mu          sync.RWMutex
	AdminEmails []string `mapstructure:"admin_emails"`
}

// Admins returns a copy of the allow-list. It is safe against hot reloads.
func (c *AuthConfig) Admins() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]string(nil), c.AdminEmails...)
}

func (c *AuthConfig) setAdmins(emails []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.AdminEmails = emails
}

type FundraiserConfig struct {
	// Name identifies the single board document in the store.
	Name string `mapstructure:"name"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.environment", "development")
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.base_url", "localhost:8080")
	v.SetDefault("api.allowed_cors_domains", []string{"http://localhost:5173"})
	v.SetDefault("api.jwt_signing_key", "")
	v.SetDefault("api.jwt_ttl", 12*time.Hour)
	v.SetDefault("gin.mode", "debug")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.db", "")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.notify_channel", "fundraiser_changed")
	v.SetDefault("store.driver", StoreDriverFile)
	v.SetDefault("store.file.dir", "./data")
	v.SetDefault("store.file.key", "sb_squares_fundraiser_plain_v1")
	v.SetDefault("store.firestore.project_id", "")
	v.SetDefault("store.firestore.collection", "fundraisers")
	v.SetDefault("auth.mode", AuthModePasscode)
	v.SetDefault("auth.admin_emails", []string{})
	v.SetDefault("fundraiser.name", "main")
}

// Load reads the YAML file at path, then environment variables such as
// API_PORT or STORE_DRIVER. A missing file is not an error.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("postgres.url", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("v.BindEnv -> %w", err)
	}

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
		}
		fileFound = false
	}

	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config -> %w", err)
	}

	if fileFound {
		watch(v, conf)
	}

	return conf, nil
}

// watch hot-reloads the admin allow-list. Other keys need a restart.
func watch(v *viper.Viper, conf *AppConfig) {
	v.OnConfigChange(func(e fsnotify.Event) {
		emails := v.GetStringSlice("auth.admin_emails")
		conf.Auth.setAdmins(emails)
		zap.L().Info("config reloaded", zap.String("file", e.Name), zap.Int("admin_emails", len(emails)))
	})
	v.WatchConfig()
}

func (c *AppConfig) Validate() error {
	err := validation.ValidateStruct(
		c,
		validation.Field(&c.API, validation.Required),
		validation.Field(&c.Store, validation.Required),
		validation.Field(&c.Auth, validation.Required),
		validation.Field(&c.Fundraiser, validation.Required),
	)
	if err != nil {
		return err
	}

	if err = validation.ValidateStruct(
		c.API,
		validation.Field(&c.API.Port, validation.Required),
		validation.Field(&c.API.JWTSigningKey, validation.Required, validation.Length(16, 0)),
	); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	if err = validation.ValidateStruct(
		c.Store,
		validation.Field(&c.Store.Driver, validation.Required, validation.In(StoreDriverFile, StoreDriverPostgres, StoreDriverFirestore)),
	); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	if c.Store.Driver == StoreDriverFirestore && (c.Store.Firestore == nil || c.Store.Firestore.ProjectID == "") {
		return errors.New("store: firestore.project_id is required")
	}

	if err = validation.ValidateStruct(
		c.Auth,
		validation.Field(&c.Auth.Mode, validation.Required, validation.In(AuthModePasscode, AuthModeAccounts)),
	); err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	// Accounts live in Postgres, so the hosted variant always has a database.
	if c.Auth.Mode == AuthModeAccounts && c.Store.Driver == StoreDriverFile {
		return errors.New("auth: accounts mode needs a hosted store")
	}

	return nil
}
