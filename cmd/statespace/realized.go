package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/quantscripts/statespace/internal/config"
	"github.com/quantscripts/statespace/marketdata"
	"github.com/quantscripts/statespace/realized"
)

// KlinesCmd downloads intraday bars day by day.
type KlinesCmd struct {
	From   string `help:"First day (YYYY-MM-DD), overrides the configuration."`
	To     string `help:"Last day (YYYY-MM-DD), overrides the configuration."`
	Output string `short:"o" help:"Output CSV, overrides the configuration."`
}

// Run implements the klines command.
func (c *KlinesCmd) Run(rc *runContext) error {
	rcfg := rc.cfg.Realized
	if c.From != "" {
		rcfg.From = c.From
	}
	if c.To != "" {
		rcfg.To = c.To
	}
	if c.Output != "" {
		rcfg.BarsFile = c.Output
	}
	from, err := config.Date(rcfg.From)
	if err != nil {
		return err
	}
	to, err := config.Date(rcfg.To)
	if err != nil {
		return err
	}

	client := &marketdata.Klines{
		Symbol:      rcfg.Symbol,
		PriceType:   rcfg.PriceType,
		Interval:    rcfg.Interval,
		Concurrency: rcfg.Concurrency,
		Log:         rc.log,
	}
	if rcfg.RPS > 0 {
		client.Limiter = rate.NewLimiter(rate.Limit(rcfg.RPS), 1)
	}
	bars, err := client.FetchRange(rc.ctx, from, to)
	if err != nil {
		return err
	}
	f, err := os.Create(rcfg.BarsFile)
	if err != nil {
		return err
	}
	if err := marketdata.WriteBarsCSV(f, bars); err != nil {
		f.Close()
		return err
	}
	rc.log.WithFields(logrus.Fields{"bars": len(bars), "file": rcfg.BarsFile}).Info("bars written")
	return f.Close()
}

// RealizedCmd computes the daily realized measures of downloaded bars.
type RealizedCmd struct {
	Bars   string `type:"existingfile" help:"Bars CSV written by the klines command, overrides the configuration."`
	Output string `short:"o" help:"Output CSV, overrides the configuration."`
}

// Run implements the realized command.
func (c *RealizedCmd) Run(rc *runContext) error {
	rcfg := rc.cfg.Realized
	if c.Bars != "" {
		rcfg.BarsFile = c.Bars
	}
	if c.Output != "" {
		rcfg.Output = c.Output
	}
	in, err := os.Open(rcfg.BarsFile)
	if err != nil {
		return err
	}
	bars, err := marketdata.ReadBarsCSV(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", rcfg.BarsFile, err)
	}
	days, err := realized.DailyMeasures(bars, realized.Options{SessionOffset: rcfg.SessionOffset, Alpha: rcfg.Alpha, Scale: 100})
	if err != nil {
		return err
	}
	if err := writeDays(rcfg.Output, days); err != nil {
		return err
	}

	sum := realized.Summarize(days)
	rc.log.WithFields(logrus.Fields{"days": sum.Days, "file": rcfg.Output}).Info("realized measures written")
	tw := newTable(rc.out, table.Row{"days", "jump days", "no jump days", "mean RV", "mean J"})
	tw.AppendRow(table.Row{sum.Days, sum.JumpDays, sum.NoJumpDays, fmt.Sprintf("%.4f", sum.MeanRV), fmt.Sprintf("%.4f", sum.MeanJ)})
	tw.Render()
	return nil
}

func writeDays(path string, days []realized.Day) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeDaysCSV(f, days); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeDaysCSV(out io.Writer, days []realized.Day) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"date", "n", "rv", "bv", "tq", "z", "j", "c"}); err != nil {
		return err
	}
	for _, d := range days {
		rec := []string{
			d.Date.Format("2006-01-02"),
			strconv.Itoa(d.N),
			strconv.FormatFloat(d.RV, 'f', -1, 64),
			strconv.FormatFloat(d.BV, 'f', -1, 64),
			strconv.FormatFloat(d.TQ, 'f', -1, 64),
			strconv.FormatFloat(d.Z, 'f', -1, 64),
			strconv.FormatFloat(d.J, 'f', -1, 64),
			strconv.FormatFloat(d.C, 'f', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
