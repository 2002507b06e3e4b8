package bootstrap

import "github.com/kbukum/getfnative/logger"

// Config is the interface constraint for application configuration types.
// config.Config satisfies it.
type Config interface {
	AppName() string
	LoggingConfig() *logger.Config
	ApplyDefaults()
	Validate() error
}
