package cli

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ncp-tools/ncp/internal/admission"
	"github.com/ncp-tools/ncp/internal/logging"
	"github.com/ncp-tools/ncp/internal/transfer"
	"github.com/ncp-tools/ncp/internal/transport"
)

// RecvCommand returns the receiver command: listen for one sender session and
// write the received entries under the destination path.
func RecvCommand() *cli.Command {
	var verbosity int
	return &cli.Command{
		Name:      "recv",
		Usage:     "Receive a file or directory from a sender",
		ArgsUsage: "<dst>",
		Flags:     commonFlags(&verbosity),
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: ncp recv [options] <dst>", ExitGeneral)
			}
			dst := c.Args().First()

			cfg, err := resolveConfig(c)
			if err != nil {
				return cli.Exit(err.Error(), ExitGeneral)
			}
			logger := logging.New("ncp-recv", logLevel(cfg, verbosity))

			policy, err := admission.ParsePolicy(cfg.Overwrite)
			if err != nil {
				return cli.Exit(err.Error(), ExitGeneral)
			}
			ctrl := admission.New(dst, policy, stdinPrompt(os.Stdin, os.Stderr), logger)

			ln, err := transport.NewListener(cfg.Transport, hostPort(cfg), logger)
			if err != nil {
				return exitErr(err)
			}
			defer ln.Close()
			logger.Info("listening", "addr", ln.Addr(), "transport", cfg.Transport)

			// One session per invocation; the process exits when the sender
			// closes the connection.
			stream, err := ln.Accept(c.Context)
			if err != nil {
				return exitErr(err)
			}
			defer stream.Close()

			if err := transfer.RunReceiver(stream, ctrl, transfer.ReceiverOptions{
				ChecksumEnabled: cfg.Checksum != "none",
				Logger:          logger,
			}); err != nil {
				logger.Error("receive failed", "error", err)
				return exitErr(err)
			}
			logger.Info("receive complete", "dst", dst)
			return nil
		},
	}
}
