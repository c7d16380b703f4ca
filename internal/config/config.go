package config

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	envPrefix                = "COLLECTIBLES"
	defaultHTTPAddress       = "0.0.0.0:8090"
	defaultAPIBaseURL        = "http://localhost:8080"
	defaultAPITimeout        = 15 * time.Second
	defaultPageSize          = 10
	defaultLogLevel          = "info"
	defaultLogFormat         = "json"
	defaultNotificationLimit = 20
)

var defaultPageSizeOptions = []int{5, 10, 25}

// AppConfig captures runtime configuration for the dashboard service.
type AppConfig struct {
	HTTPAddress       string        `config:"http.address" validate:"required"`
	APIBaseURL        string        `config:"api.base_url" validate:"required,url"`
	ImagesBaseURL     string        `config:"images.base_url" validate:"required,url"`
	APITimeout        time.Duration `config:"api.timeout" validate:"gt=0"`
	PageSize          int           `config:"page.size" validate:"gt=0"`
	PageSizeOptions   []int         `config:"page.size_options" validate:"required,min=1,dive,gt=0"`
	NotificationLimit int           `config:"notifications.limit" validate:"gt=0"`
	LogLevel          string        `config:"log.level" validate:"oneof=debug info warn warning error"`
	LogFormat         string        `config:"log.format" validate:"oneof=json console"`
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()
	// COLLECTIBLES_API_URL is the name the dashboard's .env files have always used.
	_ = configViper.BindEnv("api.base_url", envPrefix+"_API_BASE_URL", envPrefix+"_API_URL")

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("api.base_url", defaultAPIBaseURL)
	configViper.SetDefault("api.timeout", defaultAPITimeout)
	configViper.SetDefault("page.size", defaultPageSize)
	configViper.SetDefault("page.size_options", defaultPageSizeOptions)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("log.format", defaultLogFormat)
	configViper.SetDefault("notifications.limit", defaultNotificationLimit)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	pageSizeOptions, err := parseIntList(configViper.Get("page.size_options"))
	if err != nil {
		return AppConfig{}, fmt.Errorf("page.size_options: %w", err)
	}

	cfg := AppConfig{
		HTTPAddress:       strings.TrimSpace(configViper.GetString("http.address")),
		APIBaseURL:        trimBaseURL(configViper.GetString("api.base_url")),
		ImagesBaseURL:     trimBaseURL(configViper.GetString("images.base_url")),
		APITimeout:        configViper.GetDuration("api.timeout"),
		PageSize:          configViper.GetInt("page.size"),
		PageSizeOptions:   pageSizeOptions,
		NotificationLimit: configViper.GetInt("notifications.limit"),
		LogLevel:          strings.ToLower(strings.TrimSpace(configViper.GetString("log.level"))),
		LogFormat:         strings.ToLower(strings.TrimSpace(configViper.GetString("log.format"))),
	}
	if cfg.ImagesBaseURL == "" {
		cfg.ImagesBaseURL = cfg.APIBaseURL
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if err := structValidator().Struct(c); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
			first := fieldErrors[0]
			return fmt.Errorf("%s is invalid (%s)", first.Field(), first.Tag())
		}
		return err
	}
	if !slices.Contains(c.PageSizeOptions, c.PageSize) {
		return fmt.Errorf("page.size %d must be one of page.size_options %v", c.PageSize, c.PageSizeOptions)
	}
	return nil
}

func structValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name := field.Tag.Get("config"); name != "" {
			return name
		}
		return field.Name
	})
	return validate
}

func trimBaseURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// parseIntList accepts the list forms viper can hand back: a native slice from a config
// file or default, or a comma separated string from the environment or a flag.
func parseIntList(raw any) ([]int, error) {
	if text, ok := raw.(string); ok {
		var values []int
		for _, part := range strings.Split(text, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			value, err := cast.ToIntE(part)
			if err != nil {
				return nil, err
			}
			values = append(values, value)
		}
		return values, nil
	}
	if values, ok := raw.([]string); ok && len(values) == 1 {
		return parseIntList(values[0])
	}
	return cast.ToIntSliceE(raw)
}
