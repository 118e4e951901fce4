package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
)

var (
	ErrNoAccount      = errors.New("config: either a user name or a config path is required")
	ErrAccountMissing = errors.New("config: account file not found")
)

const (
	DefaultTimeout          = 30 * time.Second
	DefaultFlashVersion     = "34,0,0,192"
	DefaultMinPause         = 800 * time.Millisecond
	DefaultMaxPause         = 1400 * time.Millisecond
	DefaultMaxResponseBytes = 8 << 20
)

// Account identifies one game account: its server and session cookies.
type Account struct {
	Server    uint32
	ServerURL string
	Cookies   []Cookie
	Client    ClientConfig
}

// Cookie keeps the order cookies appear in the account file.
type Cookie struct {
	Key   string
	Value string
}

type ClientConfig struct {
	Timeout          time.Duration
	FlashVersion     string
	MinPause         time.Duration
	MaxPause         time.Duration
	MaxResponseBytes int64
}

type fileAccount struct {
	Server    int64             `toml:"server"`
	ServerURL string            `toml:"server_url"`
	Cookies   map[string]string `toml:"cookies"`
	Client    fileClient        `toml:"client"`
}

type fileClient struct {
	Timeout          string `toml:"timeout"`
	FlashVersion     string `toml:"flash_version"`
	MinPause         string `toml:"min_pause"`
	MaxPause         string `toml:"max_pause"`
	MaxResponseBytes int64  `toml:"max_response_bytes"`
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:          DefaultTimeout,
		FlashVersion:     DefaultFlashVersion,
		MinPause:         DefaultMinPause,
		MaxPause:         DefaultMaxPause,
		MaxResponseBytes: DefaultMaxResponseBytes,
	}
}

// ResolveAccountPath picks the account file: an explicit path wins, otherwise
// the user name is looked up as NAME.toml in the working directory.
func ResolveAccountPath(user, path string) (string, error) {
	path = strings.TrimSpace(path)
	user = strings.TrimSpace(user)
	switch {
	case path != "":
	case user != "":
		path = user
		if filepath.Ext(path) == "" {
			path += ".toml"
		}
	default:
		return "", ErrNoAccount
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrAccountMissing, path)
	}
	return path, nil
}

func LoadAccount(path string) (Account, error) {
	var raw fileAccount
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Account{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return accountFromFile(raw, meta)
}

// ParseAccount decodes an account from TOML text.
func ParseAccount(data string) (Account, error) {
	var raw fileAccount
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return Account{}, fmt.Errorf("config parse failed: %w", err)
	}
	return accountFromFile(raw, meta)
}

func accountFromFile(raw fileAccount, meta toml.MetaData) (Account, error) {
	acct := Account{Client: DefaultClientConfig()}
	var errs *multierror.Error

	if meta.IsDefined("server") {
		if raw.Server <= 0 || raw.Server > 1<<32-1 {
			errs = multierror.Append(errs, fmt.Errorf("server %d out of range", raw.Server))
		} else {
			acct.Server = uint32(raw.Server)
		}
	}
	if meta.IsDefined("server_url") {
		acct.ServerURL = strings.TrimRight(strings.TrimSpace(raw.ServerURL), "/")
	}

	// Map decoding loses order; the metadata keeps document order.
	for _, key := range meta.Keys() {
		if len(key) != 2 || key[0] != "cookies" {
			continue
		}
		acct.Cookies = append(acct.Cookies, Cookie{Key: key[1], Value: raw.Cookies[key[1]]})
	}

	parseDuration := func(name, value string, dst *time.Duration) {
		if !meta.IsDefined("client", name) {
			return
		}
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("parse client.%s: %w", name, err))
			return
		}
		*dst = d
	}
	parseDuration("timeout", raw.Client.Timeout, &acct.Client.Timeout)
	parseDuration("min_pause", raw.Client.MinPause, &acct.Client.MinPause)
	parseDuration("max_pause", raw.Client.MaxPause, &acct.Client.MaxPause)
	if meta.IsDefined("client", "flash_version") {
		acct.Client.FlashVersion = strings.TrimSpace(raw.Client.FlashVersion)
	}
	if meta.IsDefined("client", "max_response_bytes") {
		acct.Client.MaxResponseBytes = raw.Client.MaxResponseBytes
	}

	if err := errs.ErrorOrNil(); err != nil {
		return Account{}, err
	}
	if err := ValidateAccount(acct); err != nil {
		return Account{}, err
	}
	return acct, nil
}

// ValidateAccount reports every problem with acct at once.
func ValidateAccount(acct Account) error {
	var errs *multierror.Error
	if acct.Server == 0 && acct.ServerURL == "" {
		errs = multierror.Append(errs, errors.New("account missing server"))
	}
	if len(acct.Cookies) == 0 {
		errs = multierror.Append(errs, errors.New("account missing cookies"))
	}
	for i, c := range acct.Cookies {
		if strings.TrimSpace(c.Key) == "" {
			errs = multierror.Append(errs, fmt.Errorf("cookie[%d] missing key", i))
		}
		if strings.ContainsAny(c.Value, ";\r\n") {
			errs = multierror.Append(errs, fmt.Errorf("cookie %q has invalid value", c.Key))
		}
	}
	cc := acct.Client
	if cc.Timeout <= 0 {
		errs = multierror.Append(errs, errors.New("client.timeout must be positive"))
	}
	if cc.MinPause < 0 || cc.MaxPause < cc.MinPause {
		errs = multierror.Append(errs, fmt.Errorf("client pause range [%s, %s) invalid", cc.MinPause, cc.MaxPause))
	}
	if cc.MaxResponseBytes <= 0 {
		errs = multierror.Append(errs, errors.New("client.max_response_bytes must be positive"))
	}
	if strings.TrimSpace(cc.FlashVersion) == "" {
		errs = multierror.Append(errs, errors.New("client.flash_version is required"))
	}
	return errs.ErrorOrNil()
}
