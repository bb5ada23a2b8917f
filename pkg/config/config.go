package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/edgeflare/pgcrud/pkg/auth"
	"github.com/spf13/viper"
)

// Version is set at build time.
var Version = "dev"

// Config holds application-wide configuration
type Config struct {
	REST RESTConfig  `mapstructure:"rest"`
	Auth auth.Config `mapstructure:"auth"`
}

type RESTConfig struct {
	PG          PGConfig `mapstructure:"pg"`
	ListenAddr  string   `mapstructure:"listenAddr"`
	MetricsAddr string   `mapstructure:"metricsAddr"`
	BaseURL     string   `mapstructure:"baseURL"`
}

type PGConfig struct {
	ConnString string `mapstructure:"connString"`
}

func DefaultRESTConfig() RESTConfig {
	return RESTConfig{
		ListenAddr:  ":8080",
		MetricsAddr: ":9100",
	}
}

// Load reads config from file or environment
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("pgcrud")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config"))
		}
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("PGCRUD")

	v.SetDefault("rest.listenAddr", DefaultRESTConfig().ListenAddr)
	v.SetDefault("rest.metricsAddr", DefaultRESTConfig().MetricsAddr)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		fmt.Println("Using config file:", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &cfg, nil
}
