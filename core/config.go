package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kat-co/vala"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address                   string
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		DisableReqLogs            bool
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	QRCodeConfig struct {
		ExpirationMinutes int
		ImageSize         int
	}

	StorageConfig struct {
		Backend           string // local | azblob
		LocalDir          string
		PublicBaseURL     string
		AzureConnString   string
		AzureContainer    string
		MaxImageDimension int
	}

	ReportsConfig struct {
		FirstTuitionMonth int
		LastTuitionMonth  int
		DefaultDueDay     int
		Location          *time.Location
	}

	Config struct {
		Env                       string
		Build                     string
		Debug                     bool
		TestMode                  bool
		AppName                   string
		SecretKey                 string
		WorkDir                   string
		FrontendBaseURL           string
		RollbarToken              string
		SendgridApiKey            string
		PasswordResetTimeoutDelta time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		QRCode   QRCodeConfig
		Storage  StorageConfig
		Reports  ReportsConfig

		defaultFromEmail string
		viper            *viper.Viper
	}
)

func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, db.Port)
}

func (conf *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(conf.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: conf.AppName, Address: "noreply@localhost"}
	}
	return *addr
}

// UnmarshalKey decodes a raw configuration section (e.g. feature flags) into `rawVal`.
func (conf *Config) UnmarshalKey(key string, rawVal interface{}) error {
	return conf.viper.UnmarshalKey(key, rawVal)
}

// IsSet reports whether a raw configuration key has a value.
func (conf *Config) IsSet(key string) bool {
	return conf.viper.IsSet(key)
}

func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Manitas Creativas")
	v.SetDefault("secretKey", "k2#v9q!ml0c&w1zh@8u(tr^5y)jx7b*e3fo$4ngd6sa-pi+w")
	v.SetDefault("frontendBaseURL", "http://localhost:5173")
	v.SetDefault("defaultFromEmail", "Manitas Creativas <noreply@localhost>")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 8*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "manitas")
	v.SetDefault("database.user", "manitas")
	v.SetDefault("database.password", "manitas")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("qrCode.expirationMinutes", 525600) // 1 year
	v.SetDefault("qrCode.imageSize", 320)

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.localDir", "uploads")
	v.SetDefault("storage.publicBaseURL", "http://localhost:8000/uploads")
	v.SetDefault("storage.azureConnString", "")
	v.SetDefault("storage.azureContainer", "recibos")
	v.SetDefault("storage.maxImageDimension", 1600)

	v.SetDefault("reports.firstTuitionMonth", 1)
	v.SetDefault("reports.lastTuitionMonth", 10)
	v.SetDefault("reports.defaultDueDay", 5)
	v.SetDefault("reports.timezone", "America/Guatemala")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	// optional config file (feature flags, report settings ...)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(workDir, "config"))
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("config.ReadInConfig(): %v", err)
		}
	}

	loc, err := time.LoadLocation(v.GetString("reports.timezone"))
	if err != nil {
		loc = time.UTC
	}

	conf := &Config{
		Env:                       env,
		Build:                     v.GetString("build"),
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("testMode"),
		AppName:                   v.GetString("appName"),
		SecretKey:                 v.GetString("secretKey"),
		WorkDir:                   workDir,
		FrontendBaseURL:           strings.TrimRight(v.GetString("frontendBaseURL"), "/"),
		RollbarToken:              v.GetString("rollbarToken"),
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		Server: ServerConfig{
			Address:                   v.GetString("server.address"),
			Host:                      v.GetString("server.host"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
			DisableReqLogs:            v.GetBool("server.disableReqLogs"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		QRCode: QRCodeConfig{
			ExpirationMinutes: v.GetInt("qrCode.expirationMinutes"),
			ImageSize:         v.GetInt("qrCode.imageSize"),
		},
		Storage: StorageConfig{
			Backend:           v.GetString("storage.backend"),
			LocalDir:          v.GetString("storage.localDir"),
			PublicBaseURL:     strings.TrimRight(v.GetString("storage.publicBaseURL"), "/"),
			AzureConnString:   v.GetString("storage.azureConnString"),
			AzureContainer:    v.GetString("storage.azureContainer"),
			MaxImageDimension: v.GetInt("storage.maxImageDimension"),
		},
		Reports: ReportsConfig{
			FirstTuitionMonth: v.GetInt("reports.firstTuitionMonth"),
			LastTuitionMonth:  v.GetInt("reports.lastTuitionMonth"),
			DefaultDueDay:     v.GetInt("reports.defaultDueDay"),
			Location:          loc,
		},
		defaultFromEmail: v.GetString("defaultFromEmail"),
		viper:            v,
	}

	if err := conf.check(); err != nil {
		log.Fatalf("config: %v", err)
	}
	return conf
}

func (conf *Config) check() error {
	err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(conf.SecretKey, "secretKey"),
		vala.StringNotEmpty(conf.Database.Name, "database.name"),
		vala.GreaterThan(conf.QRCode.ExpirationMinutes, 0, "qrCode.expirationMinutes"),
		vala.GreaterThan(conf.Reports.DefaultDueDay, 0, "reports.defaultDueDay"),
	).Check()
	if err != nil {
		return err
	}
	if conf.Reports.FirstTuitionMonth < 1 || conf.Reports.LastTuitionMonth > 12 ||
		conf.Reports.FirstTuitionMonth > conf.Reports.LastTuitionMonth {
		return fmt.Errorf("invalid tuition months: %d-%d", conf.Reports.FirstTuitionMonth, conf.Reports.LastTuitionMonth)
	}
	if conf.Env == "PROD" && conf.Debug {
		return fmt.Errorf("debug must be disabled in %s", conf.Env)
	}
	return nil
}

// NewTestConfig returns a Config suitable for tests; no files nor env vars are read.
func NewTestConfig() *Config {
	return &Config{
		Env:                       "TEST",
		Build:                     "test",
		TestMode:                  true,
		AppName:                   "Manitas Creativas",
		SecretKey:                 "test-secret",
		FrontendBaseURL:           "http://localhost:5173",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 24 * time.Hour,
			ShutdownTimeout:           time.Second,
			DisableReqLogs:            true,
		},
		QRCode:  QRCodeConfig{ExpirationMinutes: 525600, ImageSize: 128},
		Storage: StorageConfig{Backend: "local", PublicBaseURL: "http://localhost:8000/uploads", MaxImageDimension: 1600},
		Reports: ReportsConfig{FirstTuitionMonth: 1, LastTuitionMonth: 10, DefaultDueDay: 5, Location: time.UTC},

		defaultFromEmail: "Manitas Creativas <noreply@localhost>",
		viper:            viper.New(),
	}
}

// SetRaw overrides a raw configuration value; tests use it to inject feature flags.
func (conf *Config) SetRaw(key string, value interface{}) {
	conf.viper.Set(key, value)
}
