package serve

import (
	"fmt"
	"os"

	serverConfig "davd/internal/server/config"
)

var defaultConfigPaths = []string{
	"server.toml",
	"davd.toml",
	"config.toml",
	"~/.config/davd/server.toml",
	"/etc/davd/server.toml",
}

const iternalDefaultConfigPath = "<DEFAULT>"

func findConfigFile() string {
	for _, path := range defaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("Found config file: %s\n", path)
			return path
		}
	}

	return iternalDefaultConfigPath
}

func findAndDecodeConfig() *serverConfig.Server {
	config := serverConfig.Default

	if configPath == iternalDefaultConfigPath {
		fmt.Println("No config file given, finding...")
		configPath = findConfigFile()
	}

	if configPath != iternalDefaultConfigPath {
		err := serverConfig.Decode(&config, configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Decode config file failed")
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	} else {
		fmt.Println("No config file found. Configed as all default.")
	}

	return &config
}
