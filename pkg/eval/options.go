package eval

import (
	"fmt"
	"slices"
	"strings"
)

type options uint32

const (
	noglob options = 1 << iota
	noexec
	xtrace
)

var optionByLetter = map[byte]options{
	'f': noglob,
	'n': noexec,
	'x': xtrace,
}

var optionByName = map[string]options{
	"noglob": noglob,
	"noexec": noexec,
	"xtrace": xtrace,
}

func (o options) has(bit options) bool {
	return o&bit != 0
}

func (o options) with(bit options, on bool) options {
	if on {
		return o | bit
	} else {
		return o &^ bit
	}
}

// Uses the tabular format of "set -o" in bash, dash, ksh and zsh.
func (o options) format() string {
	var sb strings.Builder
	names := make([]string, 0, len(optionByName))
	for name := range optionByName {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		state := "off"
		if o.has(optionByName[name]) {
			state = "on"
		}
		fmt.Fprintf(&sb, "%-10v %v\n", name, state)
	}
	return sb.String()
}

// SetOption turns an option on or off. The name can be the long name, or the
// single letter used on the command line.
func (ev *Evaler) SetOption(name string, on bool) error {
	bit, ok := optionByName[name]
	if !ok && len(name) == 1 {
		bit, ok = optionByLetter[name[0]]
	}
	if !ok {
		return fmt.Errorf("unknown option %q", name)
	}
	ev.options = ev.options.with(bit, on)
	return nil
}

// Options returns the state of all options, one per line.
func (ev *Evaler) Options() string {
	return ev.options.format()
}
