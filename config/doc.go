// Package config loads and validates getfnative configuration.
//
// It uses Viper to merge, from lowest to highest precedence, built-in
// defaults, a YAML config file, a .env file and GETFNATIVE_* environment
// variables, and explicitly set command-line flags.
//
// # Usage
//
//	var cfg config.Config
//	err := config.Load(config.AppName, &cfg,
//	    config.WithDefaults(config.Defaults()),
//	    config.WithFlags(cmd.Flags(), flagKeys))
//	cfg.ApplyDefaults()
//	err = cfg.Validate()
//
// Environment variables use underscore-separated paths, e.g.
// GETFNATIVE_ENGINE_MAX_CONCURRENT sets engine.max_concurrent.
// Fraction-valued keys such as descale.c accept "1/3".
package config
