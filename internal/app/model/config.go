package model

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Placeholders used when nothing is configured, kept from the legacy
// shell script so existing feeds look the same.
const (
	DefaultServerBase string = "http://SERVER_IP/mp3s/"
	DefaultAuthor     string = "AUTHOR"
	DefaultLogo       string = "http://SERVER_IP/logo.jpg"
)

type Config struct {
	// ServerBase is the URL the audio files are served from, the
	// enclosure URL is ServerBase joined with the audio file name.
	ServerBase string `yaml:"serverBase"`
	Author     string `yaml:"author"`
	// Logo is the itunes:image href of every new item.
	Logo string `yaml:"logo"`
	// Markdown renders the episode description as HTML.
	Markdown bool      `yaml:"markdown,omitempty"`
	Aws      AwsConfig `yaml:"aws,omitempty"`
}

// DefaultConfig returns a Config with the placeholder values.
func DefaultConfig() *Config {
	return &Config{
		ServerBase: DefaultServerBase,
		Author:     DefaultAuthor,
		Logo:       DefaultLogo,
	}
}

// SetDefaults fills empty fields with the placeholder values.
func (c *Config) SetDefaults() {
	if strings.TrimSpace(c.ServerBase) == "" {
		c.ServerBase = DefaultServerBase
	}
	if strings.TrimSpace(c.Author) == "" {
		c.Author = DefaultAuthor
	}
	if strings.TrimSpace(c.Logo) == "" {
		c.Logo = DefaultLogo
	}
}

// Placeholders returns the names of the fields still carrying a
// placeholder value.
func (c *Config) Placeholders() []string {
	var fields []string
	if c.ServerBase == DefaultServerBase {
		fields = append(fields, "serverBase")
	}
	if c.Author == DefaultAuthor {
		fields = append(fields, "author")
	}
	if c.Logo == DefaultLogo {
		fields = append(fields, "logo")
	}
	return fields
}

// EnclosureURL returns the public URL of fileName under ServerBase. The
// file name is path-escaped, the base is used as is.
func (c *Config) EnclosureURL(fileName string) string {
	return strings.TrimSuffix(c.ServerBase, "/") + "/" + url.PathEscape(fileName)
}

// ResolveTilde returns path where initial tilde (~) is replaced by
// os.UserHomeDir().
func ResolveTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		dirname, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(dirname, path[2:])
	}
	return path
}
