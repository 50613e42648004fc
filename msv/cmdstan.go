package msv

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Sampler draws from the posterior of a variant and returns the CSV files holding the draws.
type Sampler interface {
	Sample(ctx context.Context, v Variant, dataFile, outDir string) ([]string, error)
}

// CmdStan runs compiled CmdStan executables named model_<variant> in ModelDir.
type CmdStan struct {
	ModelDir string
	Chains   int
	Warmup   int
	Samples  int
	Thin     int
	Seed     int
	Refresh  int
	Log      logrus.FieldLogger
}

// NewCmdStan returns a CmdStan with 4 chains of 1000 warmup and 1000 sampling iterations.
func NewCmdStan(modelDir string, log logrus.FieldLogger) *CmdStan {
	return &CmdStan{ModelDir: modelDir, Chains: 4, Warmup: 1000, Samples: 1000, Thin: 1, Seed: 1234, Refresh: 10, Log: log}
}

// Executable returns the path of the compiled model of the variant.
func (c *CmdStan) Executable(v Variant) string {
	return filepath.Join(c.ModelDir, "model_"+v.Name)
}

// Args returns the command line arguments of a sampling run.
func (c *CmdStan) Args(v Variant, dataFile, output string) []string {
	args := []string{
		"sample",
		"num_chains=" + strconv.Itoa(c.Chains),
		"num_warmup=" + strconv.Itoa(c.Warmup),
		"num_samples=" + strconv.Itoa(c.Samples),
		"thin=" + strconv.Itoa(c.Thin),
		"data", "file=" + dataFile,
	}
	if v.Inits != "" {
		args = append(args, "init="+v.Inits)
	}
	return append(args,
		"random", "seed="+strconv.Itoa(c.Seed),
		"output", "file="+output, "refresh="+strconv.Itoa(c.Refresh),
	)
}

// OutputFiles returns the per chain CSV files CmdStan writes for the output file.
func (c *CmdStan) OutputFiles(output string) []string {
	if c.Chains <= 1 {
		return []string{output}
	}
	ext := filepath.Ext(output)
	base := output[:len(output)-len(ext)]
	files := make([]string, c.Chains)
	for i := range files {
		files[i] = fmt.Sprintf("%s_%d%s", base, i+1, ext)
	}
	return files
}

// Sample implements the Sampler interface.
func (c *CmdStan) Sample(ctx context.Context, v Variant, dataFile, outDir string) ([]string, error) {
	exe := c.Executable(v)
	if _, err := os.Stat(exe); err != nil {
		return nil, fmt.Errorf("model %s: %w", v.Name, err)
	}
	output := filepath.Join(outDir, "draws_"+v.Name+".csv")
	cmd := exec.CommandContext(ctx, exe, c.Args(v, dataFile, output)...)
	cmd.Dir = c.ModelDir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	log := c.logger().WithFields(logrus.Fields{"variant": v.Name, "chains": c.Chains})
	log.WithField("args", cmd.Args).Debug("sampling")
	start := time.Now()
	if err := cmd.Run(); err != nil {
		log.WithError(err).Error(tail(out.String(), 2000))
		return nil, fmt.Errorf("model %s: %w", v.Name, err)
	}
	log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Info("sampling done")

	files := c.OutputFiles(output)
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return nil, fmt.Errorf("model %s: missing output: %w", v.Name, err)
		}
	}
	return files, nil
}

func (c *CmdStan) logger() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
