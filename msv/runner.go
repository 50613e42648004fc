package msv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one variant.
type Result struct {
	Variant     Variant
	Elapsed     time.Duration
	Files       []string // CSV draws of every chain
	Draws       *Draws
	Summary     []ParamSummary
	SummaryFile string
}

// Runner samples every variant on the same data and writes summary_<variant>.csv in OutDir.
type Runner struct {
	Sampler     Sampler
	OutDir      string
	Params      []string // Parameters to summarize, all if empty.
	Concurrency int      // Variants sampled at the same time, at least one.
	Log         logrus.FieldLogger
}

// Run writes the data once and runs every variant. The results are in the order of variants.
func (r *Runner) Run(ctx context.Context, variants []Variant, data Data) ([]Result, error) {
	if len(variants) == 0 {
		return nil, fmt.Errorf("no variant to run")
	}
	outDir, err := filepath.Abs(r.OutDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	dataFile := filepath.Join(outDir, "data.json")
	if err := data.WriteJSON(dataFile); err != nil {
		return nil, fmt.Errorf("writing data: %w", err)
	}
	log := r.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithFields(logrus.Fields{"n": data.N, "p": data.P, "variants": len(variants)}).Info("sampling variants")

	results := make([]Result, len(variants))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.Concurrency, 1))
	for i, v := range variants {
		i, v := i, v
		g.Go(func() error {
			res, err := r.runOne(ctx, v, dataFile, outDir)
			if err != nil {
				return fmt.Errorf("variant %s: %w", v.Name, err)
			}
			log.WithFields(logrus.Fields{"variant": v.Name, "draws": len(res.Draws.Rows), "elapsed": res.Elapsed.Round(time.Millisecond)}).Info("variant done")
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) runOne(ctx context.Context, v Variant, dataFile, outDir string) (Result, error) {
	start := time.Now()
	files, err := r.Sampler.Sample(ctx, v, dataFile, outDir)
	if err != nil {
		return Result{}, err
	}
	res := Result{Variant: v, Elapsed: time.Since(start), Files: files}
	if res.Draws, err = ReadDraws(files...); err != nil {
		return Result{}, err
	}
	res.Summary = Summarize(res.Draws, r.Params...)

	res.SummaryFile = filepath.Join(outDir, "summary_"+v.Name+".csv")
	f, err := os.Create(res.SummaryFile)
	if err != nil {
		return Result{}, err
	}
	if err := WriteSummaryCSV(f, res.Summary); err != nil {
		f.Close()
		return Result{}, err
	}
	return res, f.Close()
}
