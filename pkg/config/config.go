// Package config holds the settings of a source run
package config

import (
	"strings"
	"time"

	"github.com/foomo/cockpitsource/content"
	"github.com/foomo/cockpitsource/pkg/utils"
	"github.com/pkg/errors"
)

type Config struct {
	// BaseURL of the cockpit installation
	BaseURL string `mapstructure:"base_url"`
	// Folder cockpit is installed in below BaseURL
	Folder      string `mapstructure:"folder"`
	AccessToken string `mapstructure:"access_token"`
	// SanitizeHTMLConfig is accepted for compatibility and not applied
	SanitizeHTMLConfig map[string]interface{} `mapstructure:"sanitize_html_config"`
	// CustomComponents layout components whose settings reference images
	CustomComponents           []string      `mapstructure:"custom_components"`
	PlaceholderImage           string        `mapstructure:"placeholder_image"`
	PlaceholderValue           string        `mapstructure:"placeholder_value"`
	PlaceholderValueEmptyArray string        `mapstructure:"placeholder_value_empty_array"`
	FetchTimeout               time.Duration `mapstructure:"fetch_timeout"`
	FetchConcurrency           int           `mapstructure:"fetch_concurrency"`
	TransformConcurrency       int           `mapstructure:"transform_concurrency"`
}

func Default() Config {
	return Config{
		PlaceholderImage:           content.DefaultPlaceholderImage,
		PlaceholderValue:           content.DefaultPlaceholderValue,
		PlaceholderValueEmptyArray: content.DefaultPlaceholderValueEmptyArray,
		FetchTimeout:               30 * time.Second,
		FetchConcurrency:           8,
		TransformConcurrency:       4,
	}
}

// Host cockpit is reachable at, assets and api paths are relative to it
func (c Config) Host() string {
	host := strings.TrimRight(c.BaseURL, "/")
	if folder := strings.Trim(c.Folder, "/"); folder != "" {
		host += "/" + folder
	}
	return host
}

// Placeholders sentinels for absent data linking to the fetched placeholder
// image
func (c Config) Placeholders(imageFileID string) *content.Placeholders {
	p := content.NewPlaceholders(imageFileID)
	if c.PlaceholderValue != "" {
		p.Value = c.PlaceholderValue
	}
	if c.PlaceholderValueEmptyArray != "" {
		p.EmptyArray = c.PlaceholderValueEmptyArray
	}
	return p
}

func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("missing base url")
	}
	if !utils.IsValidURL(c.Host()) {
		return errors.Errorf("invalid cockpit host %q", c.Host())
	}
	if c.PlaceholderImage != "" && !utils.IsValidURL(c.PlaceholderImage) {
		return errors.Errorf("invalid placeholder image %q", c.PlaceholderImage)
	}
	if c.PlaceholderValue != "" && c.PlaceholderValue == c.PlaceholderValueEmptyArray {
		return errors.New("placeholder value and empty array placeholder must differ")
	}
	if c.FetchTimeout < 0 {
		return errors.New("fetch timeout must not be negative")
	}
	return nil
}
