package opt

import (
	"github.com/xyproto/env/v2"
)

type (
	Config struct {
		// MaxArgs is the fast call arity bound.
		// Calls with more arguments are never turned into loops.
		MaxArgs int

		NoTailCalls    bool
		NoConditionals bool
	}
)

const DefaultMaxArgs = 8

func DefaultConfig() Config {
	return Config{
		MaxArgs: DefaultMaxArgs,
	}
}

// ConfigFromEnv reads TAILOPT_MAX_ARGS, TAILOPT_NO_TCE and TAILOPT_NO_COND.
func ConfigFromEnv() Config {
	return Config{
		MaxArgs:        env.Int("TAILOPT_MAX_ARGS", DefaultMaxArgs),
		NoTailCalls:    env.Bool("TAILOPT_NO_TCE"),
		NoConditionals: env.Bool("TAILOPT_NO_COND"),
	}
}
