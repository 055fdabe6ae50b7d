// Package config loads service configuration with viper.
//
// LoadConfig reads a YAML file (explicit, or the first of a few standard
// locations), then a .env file through godotenv, then overrides from the
// process environment. Environment variables carry a prefix and use
// underscores for nesting: OPFLOW_SNAPSHOT_PROVIDER sets snapshot.provider.
//
//	var cfg AppConfig
//	err := config.LoadConfig("opflow", &cfg, config.WithConfigFile(path))
package config
