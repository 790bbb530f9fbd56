// Package flagx pre-parses a handful of flags before the full flag set is
// built, so a config file named on the command line can be loaded first.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// flagName strips one or two leading dashes. The flag package accepts both
// "-name" and "--name", so filtering must as well.
func flagName(arg string) (string, bool) {
	if !strings.HasPrefix(arg, "-") || arg == "-" || arg == "--" {
		return "", false
	}
	name := strings.TrimPrefix(strings.TrimPrefix(arg, "-"), "-")
	if i := strings.IndexByte(name, '='); i >= 0 {
		name = name[:i]
	}
	return name, name != ""
}

// FilterArgs keeps only the allowed flags (and their values) from args.
// Allowed names are given without dashes, e.g. []string{"c", "config"}.
//
// Supported forms:
//
//	-c conf.json
//	--config conf.json
//	-c=conf.json
//	--config=conf.json
//
// A following token that starts with "-" is never taken as a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[strings.TrimLeft(f, "-")] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		name, ok := flagName(arg)
		if !ok {
			continue
		}
		if _, ok := allowed[name]; !ok {
			continue
		}

		filtered = append(filtered, arg)
		if strings.Contains(arg, "=") {
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigPath extracts the JSON config path given with -c or -config.
// Everything else in args is ignored. Returns "" when neither is present.
func ConfigPath(args []string) string {
	var config string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"c", "config"}))

	return config
}
