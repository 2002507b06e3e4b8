package logger

import "sync"

// Component names used across getfnative. Each one tags the log lines of
// one stage of a run.
const (
	ComponentSweep     = "sweep"
	ComponentEngine    = "engine"
	ComponentReport    = "report"
	ComponentTelemetry = "telemetry"
	ComponentCLI       = "cli"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]*Logger{}
)

// Register pins the logger returned by Get(name). bootstrap registers the
// application logger under the application name.
func Register(name string, l *Logger) {
	registryMu.Lock()
	registry[name] = l
	registryMu.Unlock()
}

// Get returns the logger registered under name. Unregistered names get the
// current global logger tagged with component=name, so packages that log
// before or without bootstrap still pick up the configured output.
func Get(name string) *Logger {
	registryMu.RLock()
	l, ok := registry[name]
	registryMu.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}
