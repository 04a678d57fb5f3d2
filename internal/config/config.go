// Package config loads the reconcile tool's settings from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/naxos-reconcile/internal/marcxml"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/records"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/worldcat"
)

// Environment variables read on top of the config file.
const (
	EnvDataDir  = "NAXOS_RECONCILE_DATA_DIR"
	EnvToken    = "WORLDCAT_TOKEN"
	EnvKey      = "WORLDCAT_KEY"
	EnvSecret   = "WORLDCAT_SECRET"
	EnvTokenURL = "WORLDCAT_TOKEN_URL"
)

type Config struct {
	// DataDir is the root under which one directory per day is created.
	DataDir string `yaml:"data_dir" validate:"required"`

	Records  RecordsConfig  `yaml:"records"`
	MARC     MARCConfig     `yaml:"marc"`
	WorldCat WorldCatConfig `yaml:"worldcat"`
	Links    LinksConfig    `yaml:"links"`
}

// RecordsConfig describes how content ids are found in resource URLs.
type RecordsConfig struct {
	Marker    string `yaml:"marker" validate:"required"`
	Delimiter string `yaml:"delimiter" validate:"required"`
}

type MARCConfig struct {
	StripTags []string `yaml:"strip_tags" validate:"dive,len=3,numeric"`
	URLFrom   string   `yaml:"url_from"`
	URLTo     string   `yaml:"url_to"`
}

type WorldCatConfig struct {
	BaseURL     string `yaml:"base_url" validate:"required,url"`
	TokenURL    string `yaml:"token_url" validate:"omitempty,url"`
	ItemSubType string `yaml:"item_subtype"`
	// HostMarker splits the vendor URL for the access-method (am) query term.
	HostMarker string `yaml:"host_marker" validate:"required"`
	Agency     string `yaml:"agency" validate:"required"`
	Language   string `yaml:"language" validate:"required"`

	RateLimit     time.Duration `yaml:"rate_limit" validate:"gte=0"`
	RetryAttempts uint          `yaml:"retry_attempts" validate:"gte=1"`
	RetryDelay    time.Duration `yaml:"retry_delay" validate:"gte=0"`

	// Credentials come from the environment only.
	Token  string `yaml:"-"`
	Key    string `yaml:"-"`
	Secret string `yaml:"-"`
}

type LinksConfig struct {
	RateLimit     time.Duration `yaml:"rate_limit" validate:"gte=0"`
	RetryAttempts uint          `yaml:"retry_attempts" validate:"gte=1"`
	RetryDelay    time.Duration `yaml:"retry_delay" validate:"gte=0"`
	UserAgent     string        `yaml:"user_agent"`
	// CookieDomain selects which browser cookies --browser-cookies loads.
	CookieDomain string `yaml:"cookie_domain"`
}

// Default returns the settings the tool runs with when no file is given.
func Default() Config {
	return Config{
		DataDir: "./data/files",
		Records: RecordsConfig{
			Marker:    records.DefaultMarker,
			Delimiter: records.DefaultDelimiter,
		},
		MARC: MARCConfig{
			StripTags: marcxml.DefaultEditOptions().StripTags,
			URLFrom:   marcxml.DefaultEditOptions().URLFrom,
			URLTo:     marcxml.DefaultEditOptions().URLTo,
		},
		WorldCat: WorldCatConfig{
			BaseURL:       worldcat.DefaultBaseURL,
			TokenURL:      worldcat.DefaultTokenURL,
			ItemSubType:   worldcat.DefaultItemSubType,
			HostMarker:    "nypl.",
			Agency:        worldcat.DefaultPolicy.Agency,
			Language:      worldcat.DefaultPolicy.Language,
			RateLimit:     time.Second,
			RetryAttempts: 3,
			RetryDelay:    time.Second,
		},
		Links: LinksConfig{
			RateLimit:     time.Second,
			RetryAttempts: 3,
			RetryDelay:    2 * time.Second,
			CookieDomain:  "naxosmusiclibrary.com",
		},
	}
}

// Load reads path over the defaults, applies the environment and validates.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := getenv(EnvTokenURL); v != "" {
		c.WorldCat.TokenURL = v
	}
	c.WorldCat.Token = strings.TrimSpace(getenv(EnvToken))
	c.WorldCat.Key = strings.TrimSpace(getenv(EnvKey))
	c.WorldCat.Secret = strings.TrimSpace(getenv(EnvSecret))
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and reports every failing field.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// ErrNoCredentials is returned when neither a token nor a key/secret pair is set.
var ErrNoCredentials = errors.New("no WorldCat credentials: set " + EnvToken + " or " + EnvKey + " and " + EnvSecret)

// TokenSource picks a pre-issued token over client credentials.
func (c WorldCatConfig) TokenSource() (worldcat.TokenSource, error) {
	if c.Token != "" {
		return worldcat.StaticToken(c.Token), nil
	}
	if c.Key != "" && c.Secret != "" {
		cc := worldcat.NewClientCredentials(c.Key, c.Secret)
		if c.TokenURL != "" {
			cc.TokenURL = c.TokenURL
		}
		return cc, nil
	}
	return nil, ErrNoCredentials
}

// Policy returns the disambiguation policy for these settings.
func (c WorldCatConfig) Policy() worldcat.Policy {
	return worldcat.Policy{Agency: c.Agency, Language: c.Language}
}

// EditOptions converts the MARC settings for marcxml.Edit.
func (c MARCConfig) EditOptions() marcxml.EditOptions {
	return marcxml.EditOptions{StripTags: c.StripTags, URLFrom: c.URLFrom, URLTo: c.URLTo}
}
