// Command statespace runs the time varying beta, realized volatility and
// stochastic volatility pipelines.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sirupsen/logrus"

	"github.com/quantscripts/statespace/internal/config"
)

// CLI is the command line of statespace.
type CLI struct {
	Config string `name:"config" short:"c" type:"path" help:"YAML configuration file, STATESPACE_* variables take precedence."`

	Beta     BetaCmd     `cmd:"" help:"Estimate a time varying alpha and beta with the Kalman filter and smoother."`
	Klines   KlinesCmd   `cmd:"" help:"Download intraday bars."`
	Realized RealizedCmd `cmd:"" help:"Compute daily realized volatility and detect jumps."`
	MSV      MSVCmd      `cmd:"" name:"msv" help:"Sample the stochastic volatility models with CmdStan."`
	Simulate SimulateCmd `cmd:"" help:"Simulate a local level model and check the estimation on it."`
}

// runContext is bound to the Run method of every command.
type runContext struct {
	ctx context.Context
	cfg *config.Config
	log logrus.FieldLogger
	out io.Writer
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("statespace"),
		kong.Description("Linear Gaussian state space tools for market data."),
		kong.HelpOptions{Compact: true, FlagsLast: true},
		kong.UsageOnError(),
	)
	cfg, err := config.Load(cli.Config)
	kctx.FatalIfErrorf(err)
	log := cfg.Logging.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = kctx.Run(&runContext{ctx: ctx, cfg: cfg, log: log, out: os.Stdout})
	stop()
	if err != nil {
		log.WithError(err).WithField("command", kctx.Command()).Error("command failed")
		os.Exit(1)
	}
}

func newTable(out io.Writer, header table.Row) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(header)
	return tw
}
