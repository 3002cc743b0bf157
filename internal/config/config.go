package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/lumiere-ledger/internal/domain"
	"github.com/spf13/viper"
)

const (
	configDir  = ".lumiere"
	configName = "config"
	configType = "toml"
	envPrefix  = "LM"

	KeyStateBackend    = "state.backend"
	KeyStatePath       = "state.path"
	KeyLedgerRetention = "ledger.retention"
	KeyAccessStrict    = "access.strict"
	KeyMemoryPath      = "memory.path"
	KeyServerAddr      = "server.addr"
	KeyDefaultTenant   = "tenant.default"
	KeyProfiles        = "profiles"
)

const (
	BackendTOML   = "toml"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

const (
	DefaultLedgerRetention = 500
	DefaultServerAddr      = "127.0.0.1:8787"
)

type Config struct {
	StateBackend    string
	StatePath       string
	LedgerRetention int
	Strict          bool
	MemoryPath      string
	ServerAddr      string
	DefaultTenant   domain.TenantID
	Profiles        []domain.ResourceProfile

	// Viper is the loaded configuration, handed to adapters that read their own keys.
	Viper *viper.Viper
}

type profileConfig struct {
	Specialty   string  `mapstructure:"specialty"`
	DisplayName string  `mapstructure:"display_name"`
	Level       int     `mapstructure:"level"`
	Accuracy    float64 `mapstructure:"accuracy"`
}

// Load reads ~/.lumiere/config.toml under home, with LM_ environment overrides.
// A missing config file is not an error.
func Load(home string) (Config, error) {
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home directory: %w", err)
		}
	}

	root := filepath.Join(home, configDir)
	cfg := viper.New()
	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(root)
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	cfg.SetDefault(KeyStateBackend, BackendTOML)
	cfg.SetDefault(KeyLedgerRetention, DefaultLedgerRetention)
	cfg.SetDefault(KeyAccessStrict, true)
	cfg.SetDefault(KeyMemoryPath, filepath.Join(root, "memory"))
	cfg.SetDefault(KeyServerAddr, DefaultServerAddr)
	cfg.SetDefault(KeyDefaultTenant, string(domain.DefaultTenant))

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.GetString(KeyStateBackend)))
	switch backend {
	case BackendTOML, BackendSQLite, BackendMemory:
	default:
		return Config{}, fmt.Errorf("unsupported state backend %q", backend)
	}

	statePath := cfg.GetString(KeyStatePath)
	if statePath == "" {
		switch backend {
		case BackendSQLite:
			statePath = filepath.Join(root, "state.db")
		case BackendTOML:
			statePath = filepath.Join(root, "state.toml")
		}
		if statePath != "" {
			cfg.Set(KeyStatePath, statePath)
		}
	}

	retention := cfg.GetInt(KeyLedgerRetention)
	if retention < 1 {
		retention = DefaultLedgerRetention
	}

	var rawProfiles []profileConfig
	if err := cfg.UnmarshalKey(KeyProfiles, &rawProfiles); err != nil {
		return Config{}, fmt.Errorf("decode profiles: %w", err)
	}
	profiles := make([]domain.ResourceProfile, 0, len(rawProfiles))
	for i, raw := range rawProfiles {
		if strings.TrimSpace(raw.Specialty) == "" {
			return Config{}, fmt.Errorf("profile %d: specialty is empty", i)
		}
		profiles = append(profiles, domain.ResourceProfile{
			Specialty:   raw.Specialty,
			DisplayName: raw.DisplayName,
			Level:       raw.Level,
			Accuracy:    raw.Accuracy,
		})
	}

	return Config{
		StateBackend:    backend,
		StatePath:       statePath,
		LedgerRetention: retention,
		Strict:          cfg.GetBool(KeyAccessStrict),
		MemoryPath:      cfg.GetString(KeyMemoryPath),
		ServerAddr:      cfg.GetString(KeyServerAddr),
		DefaultTenant:   domain.NormalizeTenant(domain.TenantID(cfg.GetString(KeyDefaultTenant))),
		Profiles:        profiles,
		Viper:           cfg,
	}, nil
}
