// Copyright 2023 Sauce Labs Inc. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package bind binds engine configuration structs to command line flags.
package bind

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mmatczuk/anyflag"
	"github.com/saucelabs/pxroute"
	"github.com/saucelabs/pxroute/bypass"
	"github.com/saucelabs/pxroute/log"
	"github.com/saucelabs/pxroute/pac"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func ConfigFile(fs *pflag.FlagSet, configFile *string) {
	fs.StringVarP(configFile,
		"config-file", "c", *configFile, "<path>"+
			"Configuration file to load options from. "+
			"The supported formats are: JSON, YAML, TOML, HCL, and Java properties. "+
			"The file format is determined by the file extension, if not specified the default format is YAML. "+
			"The following precedence order of configuration sources is used: command flags, environment variables, config file, default values. ")
}

// PAC binds the PAC script source and its encoding.
func PAC(fs *pflag.FlagSet, src *string, enc *string) {
	fs.VarP(anyflag.NewValueWithRedact[string](*src, src, parsePACSource, RedactInline),
		"pac", "p", "<path, URL or inline:script>"+
			"Proxy Auto-Configuration script to use for routing decisions. "+
			"It can be a local file, a http(s) or data URL, you can also use '-' to read from stdin. "+
			"Use the inline: prefix to pass the script text directly. ")

	fs.Var(anyflag.NewValue[string](*enc, enc, anyflag.EnumParser[string](pac.Encodings...)),
		"pac-encoding", "<"+strings.Join(pac.Encodings, "|")+">"+
			"Character encoding of the PAC script. "+
			"If the script cannot be decoded, utf-8, latin-1 and cp1252 are tried in that order. ")
}

func parsePACSource(val string) (string, error) {
	if _, err := pac.ParseSource(val); err != nil {
		return "", err
	}
	return val, nil
}

// BypassConfig binds the bypass list, patterns are validated when the configuration is used.
func BypassConfig(fs *pflag.FlagSet, cfg *bypass.Config) {
	fs.StringSliceVarP(&cfg.Patterns,
		"no-proxy", "n", cfg.Patterns, "<pattern>"+
			"Hosts that skip proxying. "+
			"Supported patterns are: exact host name, domain suffix (.example.com), wildcard (*.example.com), "+
			"IP address, CIDR (10.0.0.0/8) and IP range (10.0.0.1-10.0.0.100). "+
			"The flag can be specified multiple times or as a comma separated list. ")

	fs.BoolVar(&cfg.BypassLocalhost,
		"bypass-localhost", cfg.BypassLocalhost,
		"Bypass localhost, 127.0.0.1, ::1 and 0.0.0.0. ")

	fs.BoolVar(&cfg.BypassPrivateNetworks,
		"bypass-private-networks", cfg.BypassPrivateNetworks,
		"Bypass private networks 10.0.0.0/8, 172.16.0.0/12, 192.168.0.0/16, 169.254.0.0/16, fc00::/7 "+
			"and the .local, .internal, .corp and .lan domains. ")
}

func RouterConfig(fs *pflag.FlagSet, cfg *pxroute.RouterConfig) {
	fs.DurationVar(&cfg.ScriptTimeout,
		"script-timeout", cfg.ScriptTimeout,
		"The maximum amount of time a single PAC script evaluation may take. "+
			"When exceeded, the decision is approximated from the script text. ")

	fs.BoolVar(&cfg.DisableScript,
		"disable-script", cfg.DisableScript,
		"Do not execute PAC scripts, approximate decisions from the script text only. ")
}

func HTTPServerConfig(fs *pflag.FlagSet, cfg *pxroute.HTTPServerConfig) {
	fs.StringVar(&cfg.Addr,
		"address", cfg.Addr, "<host:port>"+
			"The server address to listen on. "+
			"If the host is empty, the server will listen on all available interfaces. ")

	schemes := []pxroute.Scheme{pxroute.HTTPScheme, pxroute.HTTPSScheme}
	fs.Var(anyflag.NewValue[pxroute.Scheme](cfg.Protocol, &cfg.Protocol, anyflag.EnumParser[pxroute.Scheme](schemes...)),
		"protocol", "<http|https>"+
			"The server protocol. ")

	fs.StringVar(&cfg.CertFile,
		"tls-cert-file", cfg.CertFile, "<path>"+
			"TLS certificate to use if the server protocol is https. ")

	fs.StringVar(&cfg.KeyFile,
		"tls-key-file", cfg.KeyFile, "<path>"+
			"TLS private key to use if the server protocol is https. ")

	fs.DurationVar(&cfg.ReadTimeout,
		"read-timeout", cfg.ReadTimeout,
		"The maximum duration for reading the entire request, including the body.")
}

func LogConfig(fs *pflag.FlagSet, cfg *log.Config) {
	fs.Var(NewFileFlag(&cfg.File, OpenFileParser(log.DefaultFileFlags, log.DefaultFileMode, 0o700)),
		"log-file", "<path>"+
			"Path to the log file, if empty, logs to stdout. ")

	logLevel := []log.Level{
		log.ErrorLevel,
		log.WarnLevel,
		log.InfoLevel,
		log.DebugLevel,
	}
	fs.Var(anyflag.NewValue[log.Level](cfg.Level, &cfg.Level, anyflag.EnumParser[log.Level](logLevel...)),
		"log-level", "<error|warn|info|debug>"+
			"Log level. ")

	logFormat := []log.Format{
		log.TextFormat,
		log.JSONFormat,
	}
	fs.Var(anyflag.NewValue[log.Format](cfg.Format, &cfg.Format, anyflag.EnumParser[log.Format](logFormat...)),
		"log-format", "<text|json>"+
			"Log format. ")
}

func MarkFlagHidden(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.Flags().MarkHidden(name); err != nil {
			panic(err)
		}
	}
}

func MarkFlagRequired(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
}

func AutoMarkFlagFilename(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if strings.HasPrefix(f.Usage, "<path") ||
			strings.HasSuffix(f.Name, "-file") {
			MarkFlagFilename(cmd, f.Name)
		}
	})
}

func MarkFlagFilename(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagFilename(name); err != nil {
			panic(err)
		}
	}
}

// OpenFileParser returns a parser that opens the file creating the parent directories if needed.
func OpenFileParser(flag int, perm, dirPerm os.FileMode) func(val string) (*os.File, error) {
	return func(val string) (*os.File, error) {
		if err := os.MkdirAll(filepath.Dir(val), dirPerm); err != nil {
			return nil, err
		}
		return os.OpenFile(val, flag, perm)
	}
}
