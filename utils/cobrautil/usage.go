// Copyright 2023 Sauce Labs Inc. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cobrautil

import (
	"fmt"
	"strings"

	"github.com/mitchellh/go-wordwrap"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	usageWrapLimit = 80
	usageIndent    = "        "
)

// FlagUsages formats flags for help output.
// A usage string may start with a value placeholder i.e. "<path>Path to the file",
// the placeholder is printed after the flag name and the text is wrapped.
func FlagUsages(fs *pflag.FlagSet) string {
	var sb strings.Builder
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}

		name, usage := flagNameAndUsage(f)
		if f.Shorthand != "" {
			fmt.Fprintf(&sb, "  -%s, --%s%s", f.Shorthand, f.Name, name)
		} else {
			fmt.Fprintf(&sb, "      --%s%s", f.Name, name)
		}
		if def := defaultValue(f); def != "" {
			fmt.Fprintf(&sb, " (default %s)", def)
		}
		sb.WriteString("\n")

		wrapped := wordwrap.WrapString(usage, usageWrapLimit-uint(len(usageIndent)))
		sb.WriteString(usageIndent)
		sb.WriteString(strings.ReplaceAll(wrapped, "\n", "\n"+usageIndent))
		sb.WriteString("\n\n")
	})
	return strings.TrimRight(sb.String(), "\n")
}

func flagNameAndUsage(f *pflag.Flag) (name, usage string) {
	if i := placeholderEnd(f.Usage); i > 0 {
		return " " + f.Usage[:i], strings.TrimSpace(f.Usage[i:])
	}

	name, usage = pflag.UnquoteUsage(f)
	if name != "" {
		name = " <" + name + ">"
	}
	return name, strings.TrimSpace(usage)
}

// placeholderEnd returns the length of the leading <...> or [...] placeholder or 0 if there is none.
func placeholderEnd(usage string) int {
	if usage == "" {
		return 0
	}

	var open, closing byte
	switch usage[0] {
	case '<':
		open, closing = '<', '>'
	case '[':
		open, closing = '[', ']'
	default:
		return 0
	}

	depth := 0
	for i := 0; i < len(usage); i++ {
		switch usage[i] {
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return 0
}

func defaultValue(f *pflag.Flag) string {
	switch f.DefValue {
	case "", "[]", "false", "0s":
		return ""
	}
	if f.Value.Type() == "string" {
		return fmt.Sprintf("'%s'", f.DefValue)
	}
	return f.DefValue
}

const usageTemplate = `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}

Commands:{{range .Commands}}{{if .IsAvailableCommand}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{flagUsages .LocalFlags}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{flagUsages .InheritedFlags}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`

// SetUsage installs the usage template that formats flags with FlagUsages.
func SetUsage(cmd *cobra.Command) {
	cobra.AddTemplateFunc("flagUsages", FlagUsages)
	cmd.SetUsageTemplate(usageTemplate)
}
