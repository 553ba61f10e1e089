// Package shellcfg binds the environment variables the core reads
// directly (HOME, PS1, PS2, IFS, PSH_IN_FORKED_CHILD) into a typed
// struct.
package shellcfg

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	env "github.com/xyproto/env/v2"
)

const namespace = "PSH"

// Env is the subset of the process environment the lexer, multi-line
// assembler, job control, and launcher read directly; expansion of
// other variables inside command text is the (external) expander's job,
// not this package's.
type Env struct {
	Home          string `envconfig:"HOME"`
	PS1           string `envconfig:"PS1" default:"\\u@\\h:\\w\\$ "`
	PS2           string `envconfig:"PS2" default:"> "`
	IFS           string `envconfig:"IFS" default:" \t\n"`
	InForkedChild bool   `envconfig:"IN_FORKED_CHILD" default:"false"`
}

// Load reads Env from the process environment. Note it uses the bare
// (un-namespaced) variable names for Home/PS1/PS2/IFS — those are
// standard shell variables, not psh-specific — and only PSH_IN_FORKED_CHILD
// carries the PSH namespace prefix, since envconfig.Process only applies
// the namespace to variables without an explicit envconfig tag override…
// to keep that true we load the two groups separately.
func Load() (*Env, error) {
	var e Env
	if err := envconfig.Process("", &e); err != nil {
		return nil, fmt.Errorf("shellcfg: failed to load environment: %w", err)
	}
	e.InForkedChild = env.Bool("PSH_IN_FORKED_CHILD")
	return &e, nil
}
