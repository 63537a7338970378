package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ncp-tools/ncp/internal/logging"
	"github.com/ncp-tools/ncp/internal/retry"
	"github.com/ncp-tools/ncp/internal/transport"
)

// SendCommand returns the sender command: connect to a receiver and transfer
// a file or directory tree.
func SendCommand() *cli.Command {
	var verbosity int
	flags := append(commonFlags(&verbosity),
		&cli.IntFlag{
			Name:  "retries",
			Usage: "Connection attempts before giving up",
		},
		&cli.DurationFlag{
			Name:  "backoff",
			Usage: "Pause between attempts",
			Value: retry.DefaultBackoff,
		},
	)
	return &cli.Command{
		Name:      "send",
		Usage:     "Send a file or directory to a receiver",
		ArgsUsage: "<src>",
		Flags:     flags,
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: ncp send [options] <src>", ExitGeneral)
			}
			src := c.Args().First()

			cfg, err := resolveConfig(c)
			if err != nil {
				return cli.Exit(err.Error(), ExitGeneral)
			}
			logger := logging.New("ncp-send", logLevel(cfg, verbosity))

			dialer, err := transport.NewDialer(cfg.Transport, hostPort(cfg), logger)
			if err != nil {
				return cli.Exit(err.Error(), ExitGeneral)
			}

			o := &retry.Orchestrator{
				Dialer:      dialer,
				MaxAttempts: cfg.Retries,
				Backoff:     c.Duration("backoff"),
				ClientName:  clientName(),
				Checksum:    cfg.Checksum != "none",
				Logger:      logger,
			}
			start := time.Now()
			if err := o.Run(c.Context, src); err != nil {
				logger.Error("send failed", "error", err)
				return exitErr(err)
			}
			logger.Info("send complete", "elapsed", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

// clientName identifies this sender to the receiver.
func clientName() string {
	if name, err := os.Hostname(); err == nil && name != "" {
		return name
	}
	return fmt.Sprintf("ncp-%d", os.Getpid())
}
