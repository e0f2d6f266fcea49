package phoenixd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultUsername is the user phoenixd expects for http basic auth.
	// It doubles as the config file key holding the password.
	DefaultUsername = "http-password"

	// passwordKey is the phoenix.conf key holding the API password.
	passwordKey = "http-password"
)

// Credentials is the username/password pair used to authenticate against
// phoenixd's http API.
type Credentials struct {
	Username string
	Password string
}

// ResolveCredentials determines the credentials to use for phoenixd. An
// explicitly configured password always wins. Otherwise the password is read
// from the phoenix.conf file, located either at cfg.ConfigPath or in
// $HOME/.phoenix. The file is re-read on every call.
func ResolveCredentials(cfg *Config) (*Credentials, error) {
	if cfg.Password != "" {
		username := cfg.Username
		if username == "" {
			username = DefaultUsername
		}

		return &Credentials{
			Username: username,
			Password: cfg.Password,
		}, nil
	}

	path, err := configFilePath(cfg)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigFile, err)
	}

	data := ParseConfig(string(content))
	password, ok := data[passwordKey]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingPassword, path)
	}

	log.Debugf("Using phoenixd credentials from %s", path)

	return &Credentials{
		Username: DefaultUsername,
		Password: password,
	}, nil
}

// configFilePath returns the location of phoenix.conf.
func configFilePath(cfg *Config) (string, error) {
	if cfg.ConfigPath != "" {
		return cfg.ConfigPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", ErrMissingHomeDir
	}

	return filepath.Join(home, ".phoenix", "phoenix.conf"), nil
}

// ParseConfig parses the key=value content of a phoenix.conf file. Only lines
// containing exactly one '=' are taken into account, both sides are trimmed
// and a later duplicate key overrides an earlier one.
func ParseConfig(content string) map[string]string {
	data := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		parts := strings.Split(line, "=")
		if len(parts) != 2 {
			continue
		}

		data[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}

	return data
}
