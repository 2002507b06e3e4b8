package process

import (
	"io"
	"strings"
	"time"
)

// DefaultGracePeriod is the SIGTERM-to-SIGKILL delay used when
// Command.GracePeriod is zero.
const DefaultGracePeriod = 5 * time.Second

// Command configures one engine invocation.
type Command struct {
	// Binary is the executable path or name (resolved via PATH).
	Binary string
	Args   []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env holds extra KEY=value pairs appended to the parent environment.
	Env   []string
	Stdin io.Reader
	// GracePeriod is how long the process group gets after SIGTERM.
	GracePeriod time.Duration
	// Timeout bounds a single run. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// String renders the command line for logs.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Binary
	}
	return c.Binary + " " + strings.Join(c.Args, " ")
}

func (c Command) gracePeriod() time.Duration {
	if c.GracePeriod <= 0 {
		return DefaultGracePeriod
	}
	return c.GracePeriod
}
