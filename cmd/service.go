package cmd

import (
	"context"

	ksvc "github.com/kardianos/service"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Runner is the part of the bot service the service manager drives.
type Runner interface {
	Run(ctx context.Context)
	Shutdown()
}

type Program struct {
	bot    Runner
	cancel context.CancelFunc
	done   chan struct{}
}

func NewProgram(bot Runner) *Program {
	return &Program{bot: bot}
}

func (p *Program) Start(s ksvc.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx)
	return nil
}

func (p *Program) run(ctx context.Context) {
	defer close(p.done)
	p.bot.Run(ctx)
}

func (p *Program) Stop(s ksvc.Service) error {
	p.bot.Shutdown()
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}
	return nil
}

func ServiceConfig(configPath string) *ksvc.Config {
	cfg := &ksvc.Config{
		Name:        "FleetFlotTheTweetBot",
		DisplayName: "FleetFlot Tweet Bot",
		Description: "Mirrors tweets linked on a subreddit as reddit comments.",
		Arguments:   []string{"service"},
	}
	if configPath != "" {
		cfg.Arguments = []string{"-config", configPath, "service"}
	}
	return cfg
}

// RunService either performs a control action (install, start, ...) or
// runs the bot under the service manager until it is stopped.
func RunService(bot Runner, action, configPath string, log zerolog.Logger) error {
	s, err := ksvc.New(NewProgram(bot), ServiceConfig(configPath))
	if err != nil {
		return errors.Wrap(err, "error creating service")
	}

	if action != "" {
		if err := ksvc.Control(s, action); err != nil {
			return errors.Wrapf(err, "service %s failed", action)
		}
		log.Info().Str("action", action).Msg("service control done")
		return nil
	}

	if err := s.Run(); err != nil {
		return errors.Wrap(err, "error running service")
	}
	return nil
}
