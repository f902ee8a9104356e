package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/JaimeStill/speakeval/pkg/middleware"
	"github.com/JaimeStill/speakeval/pkg/openapi"
	"github.com/JaimeStill/speakeval/pkg/pagination"
)

const (
	EnvAPIBasePath      = "API_BASE_PATH"
	EnvAPIDocsEnabled   = "API_DOCS_ENABLED"
	EnvAPIDocsPath      = "API_DOCS_PATH"
	EnvAPIStreamOrigins = "API_STREAM_ORIGINS"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "API_CORS_ENABLED",
	Origins:          "API_CORS_ORIGINS",
	AllowedMethods:   "API_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "API_CORS_ALLOWED_HEADERS",
	AllowCredentials: "API_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "API_CORS_MAX_AGE",
}

var openAPIEnv = &openapi.ConfigEnv{
	Title:       "API_OPENAPI_TITLE",
	Description: "API_OPENAPI_DESCRIPTION",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "API_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "API_PAGINATION_MAX_PAGE_SIZE",
	MaxSearchLength: "API_PAGINATION_MAX_SEARCH_LENGTH",
}

// APIConfig configures the JSON API mounted under BasePath, the interactive
// reference served at Docs.Path, and the origins allowed to open the live
// transcript websocket.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	StreamOrigins []string              `toml:"stream_origins"`
	Docs          DocsConfig            `toml:"docs"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
	OpenAPI       openapi.Config        `toml:"openapi"`
}

// DocsConfig controls the Scalar API reference. Enabled is a pointer so an
// overlay can switch the reference off.
type DocsConfig struct {
	Enabled *bool  `toml:"enabled"`
	Path    string `toml:"path"`
}

func (d DocsConfig) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// SpecURL is where the API module serves its OpenAPI document.
func (c *APIConfig) SpecURL() string {
	return c.BasePath + "/openapi.json"
}

// WebSocketOrigins lists cross-origin hosts allowed to open the transcript
// stream. Without explicit stream origins the CORS origins apply.
func (c *APIConfig) WebSocketOrigins() []string {
	if len(c.StreamOrigins) > 0 {
		return c.StreamOrigins
	}
	if c.CORS.Enabled {
		return c.CORS.Origins
	}
	return nil
}

func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openAPIEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.StreamOrigins != nil {
		c.StreamOrigins = overlay.StreamOrigins
	}
	if overlay.Docs.Enabled != nil {
		c.Docs.Enabled = overlay.Docs.Enabled
	}
	if overlay.Docs.Path != "" {
		c.Docs.Path = overlay.Docs.Path
	}
	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.Docs.Path == "" {
		c.Docs.Path = "/scalar"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvAPIDocsEnabled); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Docs.Enabled = &b
		}
	}
	if v := os.Getenv(EnvAPIDocsPath); v != "" {
		c.Docs.Path = v
	}
	if v := os.Getenv(EnvAPIStreamOrigins); v != "" {
		c.StreamOrigins = splitList(v)
	}
}

func (c *APIConfig) validate() error {
	if err := validatePrefix(c.BasePath); err != nil {
		return fmt.Errorf("base_path: %w", err)
	}
	if c.Docs.IsEnabled() {
		if err := validatePrefix(c.Docs.Path); err != nil {
			return fmt.Errorf("docs.path: %w", err)
		}
		if c.Docs.Path == c.BasePath {
			return fmt.Errorf("docs.path %q collides with base_path", c.Docs.Path)
		}
	}
	for _, origin := range c.StreamOrigins {
		if err := validateOrigin(origin); err != nil {
			return fmt.Errorf("stream_origins: %w", err)
		}
	}
	return nil
}

// validatePrefix accepts a single-segment mount prefix such as "/api".
func validatePrefix(p string) error {
	if len(p) < 2 || p[0] != '/' || strings.Count(p, "/") != 1 {
		return fmt.Errorf("%q must be a single path segment like /api", p)
	}
	return nil
}

func validateOrigin(origin string) error {
	if origin == "*" {
		return nil
	}
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || (u.Path != "" && u.Path != "/") {
		return fmt.Errorf("invalid origin %q", origin)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
