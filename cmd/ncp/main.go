// Command ncp is a point-to-point file transfer tool. The sender connects to
// a listening receiver and transfers a file or directory tree over a framed
// protocol with per-file integrity verification.
//
// Usage:
//
//	ncp send --host HOST --port PORT [options] <src>
//	ncp recv --port PORT [options] <dst>
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	urfavecli "github.com/urfave/cli/v2"

	"github.com/ncp-tools/ncp/internal/cli"
	"github.com/ncp-tools/ncp/pkg/protocol"
)

// version is set via ldflags at build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &urfavecli.App{
		Name:           "ncp",
		Usage:          "Point-to-point file transfer over TCP or QUIC",
		Version:        fmt.Sprintf("%s (protocol %s)", version, protocol.ProtocolVersion),
		ExitErrHandler: exitErrHandler,
		Commands: []*urfavecli.Command{
			cli.SendCommand(),
			cli.RecvCommand(),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		// ExitErrHandler already exited for cli.Exit errors; anything left is
		// an unwrapped failure.
		os.Exit(cli.ExitGeneral)
	}
}

// exitErrHandler propagates the exit codes attached by the command layer.
func exitErrHandler(_ *urfavecli.Context, err error) {
	if err == nil {
		return
	}
	var exitCoder urfavecli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		if msg := exitCoder.Error(); msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(cli.ExitGeneral)
}
