// Package bootstrap runs the getfnative command as a finite task with a
// uniform lifecycle.
//
// NewApp applies config defaults, validates the config and initializes the
// global logger. RunTask runs the OnStart hooks, prints the run summary,
// executes the task with a context canceled on SIGINT/SIGTERM and finally
// runs the OnStop hooks in reverse order under a graceful timeout, so
// telemetry is flushed and stores are closed even for canceled runs.
package bootstrap
