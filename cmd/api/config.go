package main

import (
	"encoding/json"
	"flag"
	"os"
	"path"
	"strings"

	"github.com/omeid/uconfig"
	"github.com/omeid/uconfig/plugins"
	"github.com/omeid/uconfig/plugins/file"
	"github.com/rs/zerolog/log"
)

// configFilename is the filename of the config file automatically loaded.
var configFilename = "config.json"

type config struct {
	Dir string // This will default to "", NOT the default dir value set via the flag package

	HTTP HTTPConfig

	Universe struct {
		CapacityBits      uint  `default:"24"`
		NumberOfComputors int64 `default:"676"`
		MaxTickActions    int   `default:"1024"`
	}

	Snapshots struct {
		Enabled      bool  `default:"true"`
		RestoreEpoch int64 `default:"-1"` // -1 restores the latest snapshot
	}

	Metrics struct {
		Port string `default:"9090"`
	}
	Log struct {
		Human bool `default:"false"`
		Debug bool `default:"false"`
	}
	Backup BackupConfig

	Contracts []ContractConfig
}

// ContractConfig describes one contract registered at startup. Contract
// indices are assigned in listing order.
type ContractConfig struct {
	Name      string `default:""`
	ID        string `default:""` // 0x-prefixed 32-byte hex
	AssetName string `default:""` // 1-7 chars, e.g. "QX"
}

// HTTPConfig contains configuration for the HTTP server serving APIs.
type HTTPConfig struct {
	Port string `default:"8080"` // HTTP port (e.g. 8080)

	TLSCert string `default:""`
	TLSKey  string `default:""`

	RateLimInterval       string `default:"1s"`
	MaxRequestPerInterval uint64 `default:"10"`
}

// BackupConfig contains configuration for automatic snapshot-database backups.
type BackupConfig struct {
	Enabled           bool   `default:"true"`
	Dir               string `default:"backups"` // relative to dir path config (e.g. ${HOME}/.universe/backups )
	Frequency         int    `default:"120"`     // in minutes
	EnableVacuum      bool   `default:"true"`
	EnableCompression bool   `default:"true"`
	Pruning           struct {
		Enabled   bool `default:"true"`
		KeepFiles int  `default:"5"` // number of files to keep
	}
}

func setupConfig() (*config, string) {
	flagDirPath := flag.String("dir", "${HOME}/.universe", "Directory where the configuration and snapshot DB exist")
	flag.Parse()
	if flagDirPath == nil {
		log.Fatal().Msg("--dir is null")
		return nil, "" // Helping the linter know the next line is safe.
	}
	dirPath := os.ExpandEnv(*flagDirPath)

	_ = os.MkdirAll(dirPath, 0o755)

	var plugins []plugins.Plugin
	fullPath := path.Join(dirPath, configFilename)
	configFileBytes, err := os.ReadFile(fullPath)
	if os.IsNotExist(err) {
		log.Info().Str("config_file_path", fullPath).Msg("config file not found")
	} else if err != nil {
		log.Fatal().Str("config_file_path", fullPath).Err(err).Msg("opening config file")
	} else {
		fileStr := os.ExpandEnv(string(configFileBytes))
		plugins = append(plugins, file.NewReader(strings.NewReader(fileStr), json.Unmarshal))
	}

	conf := &config{}
	c, err := uconfig.Classic(&conf, file.Files{}, plugins...)
	if err != nil {
		c.Usage()
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	return conf, dirPath
}
