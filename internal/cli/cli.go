// Package cli defines the send and recv commands and the mapping from
// transfer errors to process exit codes.
package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/ncp-tools/ncp/internal/config"
	"github.com/ncp-tools/ncp/internal/logging"
)

func commonFlags(verbosity *int) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "host",
			Usage: "Peer address for send, bind address for recv",
		},
		&cli.IntFlag{
			Name:  "port",
			Usage: "TCP or QUIC port",
		},
		&cli.StringFlag{
			Name:  "transport",
			Usage: "Transport to use: tcp or quic",
		},
		&cli.StringFlag{
			Name:  "checksum",
			Usage: "Content verification: hash or none",
		},
		&cli.StringFlag{
			Name:  "overwrite",
			Usage: "Existing destination policy: ask, yes or no",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path to a YAML config file",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Increase log verbosity (repeatable)",
			Count:   verbosity,
		},
	}
}

// resolveConfig layers CLI flags over the file/env configuration.
func resolveConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("host") {
		cfg.Host = c.String("host")
	}
	if c.IsSet("port") {
		cfg.Port = c.Int("port")
	}
	if c.IsSet("transport") {
		cfg.Transport = c.String("transport")
	}
	if c.IsSet("checksum") {
		mode, err := parseChecksumMode(c.String("checksum"))
		if err != nil {
			return cfg, err
		}
		cfg.Checksum = mode
	}
	if c.IsSet("overwrite") {
		cfg.Overwrite = c.String("overwrite")
	}
	if c.IsSet("retries") {
		cfg.Retries = c.Int("retries")
	}
	return cfg, cfg.Validate()
}

// parseChecksumMode maps the CLI spelling to the wire algorithm id.
func parseChecksumMode(s string) (string, error) {
	switch s {
	case "hash":
		return "xxh64", nil
	case "none":
		return "none", nil
	default:
		return "", fmt.Errorf("unknown checksum mode %q (want hash or none)", s)
	}
}

// logLevel gives repeated -v flags priority over the configured level.
func logLevel(cfg config.Config, verbosity int) string {
	if verbosity > 0 {
		return logging.LevelFromVerbosity(verbosity)
	}
	return cfg.LogLevel
}

func hostPort(cfg config.Config) string {
	return net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
}
