package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sirupsen/logrus"

	"github.com/quantscripts/statespace"
	"github.com/quantscripts/statespace/internal/beta"
	"github.com/quantscripts/statespace/internal/config"
	"github.com/quantscripts/statespace/marketdata"
)

// BetaCmd estimates the alpha and beta of a stock against its market.
type BetaCmd struct {
	StockFile  string `type:"path" help:"Stock closes CSV. Downloaded from stooq when empty."`
	MarketFile string `type:"path" help:"Market closes CSV. Downloaded from stooq when empty."`
	Output     string `short:"o" help:"Output CSV, overrides the configuration."`
}

// Run implements the beta command.
func (c *BetaCmd) Run(rc *runContext) error {
	bc := rc.cfg.Beta
	if c.StockFile != "" {
		bc.StockFile = c.StockFile
	}
	if c.MarketFile != "" {
		bc.MarketFile = c.MarketFile
	}
	if c.Output != "" {
		bc.Output = c.Output
	}
	start, err := config.Date(bc.Start)
	if err != nil {
		return err
	}
	end, err := config.Date(bc.End)
	if err != nil {
		return err
	}

	opts := marketdata.CSVOptions{DateColumn: bc.DateColumn, CloseColumn: bc.CloseColumn, DateLayouts: bc.DateLayouts}
	stock, err := loadSeries(rc, bc.Stock, bc.StockFile, opts, start, end)
	if err != nil {
		return err
	}
	market, err := loadSeries(rc, bc.Market, bc.MarketFile, opts, start, end)
	if err != nil {
		return err
	}
	rs, err := stock.LogReturns(bc.ReturnScale)
	if err != nil {
		return err
	}
	rm, err := market.LogReturns(bc.ReturnScale)
	if err != nil {
		return err
	}
	pair := marketdata.Join(rm, rs).Between(start, end)
	rc.log.WithFields(logrus.Fields{"stock": bc.Stock, "market": bc.Market, "days": pair.Len()}).Info("returns aligned")

	rep, err := beta.Run(pair, beta.Options{
		PriorVariance: bc.PriorVariance,
		Level:         bc.Level,
		BurnIn:        bc.BurnIn,
		MaxIterations: bc.MaxIterations,
	})
	if err != nil {
		return err
	}
	if rep.FitErr != nil {
		rc.log.WithError(rep.FitErr).Warn("minimizer stopped early")
	}
	rc.log.WithField("fit", rep.Fit.String()).Info("variances fitted")

	exporter, err := statespace.NewCSVExporter(beta.Headers, filepath.Dir(bc.Output), filepath.Base(bc.Output))
	if err != nil {
		return err
	}
	if err := rep.Export(exporter); err != nil {
		exporter.Close()
		return err
	}
	if err := exporter.Close(); err != nil {
		return err
	}

	last := rep.LastBeta()
	tw := newTable(rc.out, table.Row{"quantity", "value"})
	tw.AppendRows([]table.Row{
		{"observations", pair.Len()},
		{"σ²_W (state)", fmt.Sprintf("%.6g", rep.Fit.ProcessVariance)},
		{"σ²_V (observation)", fmt.Sprintf("%.6g", rep.Fit.ObservationVariance)},
		{"-log likelihood", fmt.Sprintf("%.4f", rep.Fit.NegLogLik)},
		{"optimizer", fmt.Sprintf("%s after %d iterations", rep.Fit.Status, rep.Fit.Iterations)},
		{"mean NIS", rep.NIS.String()},
		{"static beta", fmt.Sprintf("%.4f", rep.Static.AtVec(1))},
		{"last smoothed beta", last.String()},
		{"output", bc.Output},
	})
	tw.Render()
	return nil
}

// loadSeries reads the file if provided, or downloads the symbol from stooq.
func loadSeries(rc *runContext, symbol, file string, opts marketdata.CSVOptions, start, end time.Time) (marketdata.Series, error) {
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return marketdata.Series{}, err
		}
		defer f.Close()
		return marketdata.ReadCSV(symbol, f, opts)
	}
	rc.log.WithField("symbol", symbol).Info("downloading from stooq")
	return marketdata.Stooq{}.Fetch(rc.ctx, symbol, start, end)
}
