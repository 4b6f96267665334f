package cmd

import (
	"flag"
	"fmt"
	"io"
)

type Flags struct {
	ConfigPath string
	Verbose    bool
	Limit      int
	Version    bool
	// ServiceAction is one of install, uninstall, start, stop, restart or
	// empty to run in the foreground under the service manager.
	ServiceAction string
	TweetURL      string
}

const usage = `Usage: tweetbot [flags] <command>

Commands:
  run                  do one pass over the newest submissions and exit (default)
  preview <tweet url>  print the reply the bot would post, without posting
  service [action]     run on an interval; action is install, uninstall, start, stop or restart

Flags:
`

// ParseFlags parses args (without the program name) and returns the flags
// and the subcommand.
func ParseFlags(args []string, out io.Writer) (Flags, string, error) {
	flags := Flags{}

	fs := flag.NewFlagSet("tweetbot", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		fmt.Fprint(out, usage)
		fs.PrintDefaults()
	}

	fs.StringVar(&flags.ConfigPath, "c", "", "Path to config.toml")
	fs.StringVar(&flags.ConfigPath, "config", "", "Path to config.toml")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Also log to the console")
	fs.IntVar(&flags.Limit, "n", 0, "Number of newest submissions to check (overrides bot.num_threads)")
	fs.IntVar(&flags.Limit, "limit", 0, "Number of newest submissions to check (overrides bot.num_threads)")
	fs.BoolVar(&flags.Version, "v", false, "Display version information")
	fs.BoolVar(&flags.Version, "version", false, "Display version information")

	if err := fs.Parse(args); err != nil {
		return flags, "", err
	}

	rest := fs.Args()
	subcommand := "run"
	if len(rest) > 0 {
		subcommand = rest[0]
	}

	switch subcommand {
	case "run":
	case "preview":
		if len(rest) < 2 {
			return flags, "", fmt.Errorf("preview needs a tweet url")
		}
		flags.TweetURL = rest[1]
	case "service":
		if len(rest) > 1 {
			flags.ServiceAction = rest[1]
		}
	default:
		return flags, "", fmt.Errorf("unknown command %q", subcommand)
	}

	return flags, subcommand, nil
}
