package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/auth"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/cmd"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/config"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/core"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/logger"
)

const version = "v2.0.0"

func main() {
	os.Exit(run())
}

func run() int {
	flags, subcommand, err := cmd.ParseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	if flags.Version {
		fmt.Printf("FleetFlotTheTweetBot version %s\n", version)
		return 0
	}

	if err := config.LoadEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	configPath := flags.ConfigPath
	if configPath == "" {
		configPath = config.GetConfigPath()
	}
	config.VerifyConfigOnStartup(configPath)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}
	if flags.Verbose {
		cfg.Options.Verbose = true
	}
	if flags.Limit > 0 {
		cfg.Bot.NumThreads = flags.Limit
	}

	log, closer, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		return 1
	}
	defer closer.Close()

	log.Info().Str("version", version).Str("command", subcommand).Str("subreddit", cfg.Bot.Subreddit).
		Msg("starting FleetFlotTheTweetBot")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch subcommand {
	case "preview":
		clients, err := core.NewComposer(ctx, cfg, log)
		if err != nil {
			return startupFailed(log, err)
		}
		defer clients.Close()
		if err := cmd.Preview(ctx, clients.Composer, flags.TweetURL, os.Stdout); err != nil {
			return 1
		}
		return 0

	case "service":
		// Control actions only talk to the service manager.
		if flags.ServiceAction != "" {
			if err := cmd.RunService(nil, flags.ServiceAction, flags.ConfigPath, log); err != nil {
				log.Error().Err(err).Msg("service control failed")
				return 1
			}
			return 0
		}
		clients, err := core.New(ctx, cfg, log)
		if err != nil {
			return startupFailed(log, err)
		}
		defer clients.Close()
		if err := cmd.RunService(clients.Bot, "", flags.ConfigPath, log); err != nil {
			log.Error().Err(err).Msg("service stopped with an error")
			return 1
		}
		return 0

	default:
		clients, err := core.New(ctx, cfg, log)
		if err != nil {
			return startupFailed(log, err)
		}
		defer clients.Close()
		if err := clients.Bot.RunOnce(ctx); err != nil {
			log.Error().Err(err).Msg("run failed")
			return 1
		}
		log.Info().Msg("done")
		return 0
	}
}

func startupFailed(log zerolog.Logger, err error) int {
	if errors.Is(err, auth.ErrFatalStartup) {
		log.Error().Err(err).Msg("startup login failed")
	} else {
		log.Error().Err(err).Msg("startup failed")
	}
	fmt.Fprintln(os.Stderr, err)
	return 1
}
