package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/quantscripts/statespace/internal/config"
	"github.com/quantscripts/statespace/marketdata"
	"github.com/quantscripts/statespace/msv"
)

// MSVCmd samples every configured model variant on two return series.
type MSVCmd struct {
	First       string   `arg:"" type:"existingfile" help:"Closes CSV of the first series."`
	Second      string   `arg:"" type:"existingfile" help:"Closes CSV of the second series."`
	DateColumn  string   `default:"Date" help:"Date column of both files."`
	CloseColumn string   `default:"Close" help:"Close column of both files."`
	Start       string   `help:"First date (YYYY-MM-DD)."`
	End         string   `help:"Last date (YYYY-MM-DD)."`
	Variants    []string `help:"Variants to run, all configured variants if empty."`
}

// Run implements the msv command.
func (c *MSVCmd) Run(rc *runContext) error {
	mc := rc.cfg.MSV
	start, err := config.Date(c.Start)
	if err != nil {
		return err
	}
	end, err := config.Date(c.End)
	if err != nil {
		return err
	}
	opts := marketdata.CSVOptions{DateColumn: c.DateColumn, CloseColumn: c.CloseColumn}
	first, err := readReturns(c.First, opts)
	if err != nil {
		return err
	}
	second, err := readReturns(c.Second, opts)
	if err != nil {
		return err
	}
	pair := marketdata.Join(first, second).Between(start, end)
	data, err := msv.NewData(pair.X, pair.Y)
	if err != nil {
		return err
	}
	variants, err := selectVariants(mc.Variants, c.Variants)
	if err != nil {
		return err
	}

	sampler := msv.NewCmdStan(mc.ModelDir, rc.log)
	sampler.Chains = mc.Chains
	sampler.Warmup = mc.Warmup
	sampler.Samples = mc.Samples
	sampler.Thin = mc.Thin
	sampler.Seed = mc.Seed
	sampler.Refresh = mc.Refresh
	runner := &msv.Runner{Sampler: sampler, OutDir: mc.OutDir, Params: mc.Params, Concurrency: mc.Concurrency, Log: rc.log}
	results, err := runner.Run(rc.ctx, variants, data)
	if err != nil {
		return err
	}

	rolling, err := msv.RollingCorrelation(pair.X, pair.Y, mc.Window)
	if err != nil {
		return err
	}
	tw := newTable(rc.out, table.Row{"variant", "elapsed", "draws", "parameter", "mean", "sd", "5%", "50%", "95%"})
	for _, res := range results {
		if err := writeBands(filepath.Join(mc.OutDir, "bands_"+res.Variant.Name+".csv"), pair.Dates, res.Draws, rolling); err != nil {
			rc.log.WithError(err).WithField("variant", res.Variant.Name).Warn("no posterior bands")
		}
		for i, s := range res.Summary {
			row := table.Row{"", "", "", s.Name, fmt.Sprintf("%.4f", s.Mean), fmt.Sprintf("%.4f", s.SD), fmt.Sprintf("%.4f", s.Q5), fmt.Sprintf("%.4f", s.Q50), fmt.Sprintf("%.4f", s.Q95)}
			if i == 0 {
				row[0], row[1], row[2] = res.Variant.Name, res.Elapsed.Round(time.Second), len(res.Draws.Rows)
			}
			tw.AppendRow(row)
		}
		tw.AppendSeparator()
	}
	tw.Render()
	return nil
}

func readReturns(path string, opts marketdata.CSVOptions) (marketdata.Returns, error) {
	f, err := os.Open(path)
	if err != nil {
		return marketdata.Returns{}, err
	}
	defer f.Close()
	s, err := marketdata.ReadCSV(filepath.Base(path), f, opts)
	if err != nil {
		return marketdata.Returns{}, err
	}
	return s.LogReturns(100)
}

func selectVariants(all []msv.Variant, names []string) ([]msv.Variant, error) {
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]msv.Variant, len(all))
	for _, v := range all {
		byName[v.Name] = v
	}
	out := make([]msv.Variant, 0, len(names))
	for _, n := range names {
		v, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("unknown variant %q", n)
		}
		out = append(out, v)
	}
	return out, nil
}

// writeBands writes the volatility of both series and their correlation.
func writeBands(path string, dates []time.Time, draws *msv.Draws, rolling []float64) error {
	var cols []msv.BandColumn
	for _, prefix := range []string{"volatility.1", "volatility.2", "rho"} {
		band, err := msv.Band(draws, prefix)
		if err != nil {
			return err
		}
		cols = append(cols, msv.BandColumn{Name: prefix, Band: band})
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := msv.WriteBandsCSV(f, dates, cols, msv.Column{Name: "rho_rolling", Values: rolling}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
