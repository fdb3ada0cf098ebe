package repl

import (
	"os"
	"os/user"
	"strings"
)

const DefaultPrompt = `\u@\h:\w\$ `

// PromptInfo is what a prompt template can show.
type PromptInfo struct {
	User string
	Host string
	Wd   string
	Home string
	Root bool
}

// CurrentPromptInfo returns the PromptInfo of this process. Fields that can't
// be found are left empty.
func CurrentPromptInfo() PromptInfo {
	var info PromptInfo
	if u, err := user.Current(); err == nil {
		info.User = u.Username
	}
	if host, err := os.Hostname(); err == nil {
		info.Host, _, _ = strings.Cut(host, ".")
	}
	info.Wd, _ = os.Getwd()
	info.Home, _ = os.UserHomeDir()
	info.Root = os.Geteuid() == 0
	return info
}

// ExpandPrompt replaces \u with the user name, \h with the host name, \w with
// the working directory, \$ with # for root and $ otherwise, and \\ with a
// backslash.
func ExpandPrompt(template string, info PromptInfo) string {
	if template == "" {
		template = DefaultPrompt
	}
	wd := info.Wd
	if info.Home != "" && (wd == info.Home || strings.HasPrefix(wd, info.Home+string(os.PathSeparator))) {
		wd = "~" + strings.TrimPrefix(wd, info.Home)
	}
	sign := "$"
	if info.Root {
		sign = "#"
	}
	return strings.NewReplacer(
		`\\`, `\`,
		`\u`, info.User,
		`\h`, info.Host,
		`\w`, wd,
		`\$`, sign,
	).Replace(template)
}
