package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	cfgpkg "github.com/KaramelBytes/insightloom/internal/config"
	"github.com/KaramelBytes/insightloom/internal/dataset"
	"github.com/KaramelBytes/insightloom/internal/engine"
)

var (
	batchPlanPath   string
	batchOutputPath string
	batchQuiet      bool
)

// Plan is a batch file: analyses run in the listed order.
type Plan struct {
	Analyses []engine.Request `yaml:"analyses"`
}

// BatchReport is the JSON shape of a batch run.
type BatchReport struct {
	RunID    string           `json:"runId"`
	Dataset  string           `json:"dataset"`
	Rows     int              `json:"rows"`
	Started  time.Time        `json:"started"`
	Duration string           `json:"duration"`
	Results  []*engine.Result `json:"results"`
}

var batchCmd = &cobra.Command{
	Use:   "batch <dataset>",
	Short: "Run every analysis of a YAML plan on one dataset",
	Long: `Run every analysis listed in a YAML plan:

  analyses:
    - type: Ranking
      fields: [region]
    - type: Trend with Forecast
      fields: [date, score]

The whole plan is validated before anything runs. Analyses then run in
parallel (see --workers) and are printed in plan order.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := loadPlan(batchPlanPath)
		if err != nil {
			return err
		}
		built, err := buildPlan(plan)
		if err != nil {
			return err
		}
		ds, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		for i, req := range plan.Analyses {
			if missing := missingFields(ds, req.Fields); len(missing) > 0 {
				warnf("plan entry %d: %s has no column named %s", i+1, args[0], strings.Join(missing, ", "))
			}
		}

		workers := 4
		if cfg != nil {
			workers = cfg.Workers
		}
		started := time.Now()
		report := &BatchReport{RunID: uuid.NewString(), Dataset: args[0], Rows: ds.Len(), Started: started.UTC()}
		report.Results, err = runPlan(cmd.Context(), built, ds, workers)
		if err != nil {
			return err
		}
		report.Duration = time.Since(started).Round(time.Millisecond).String()
		logger.Debug("batch finished", "run_id", report.RunID, "analyses", len(built), "duration", report.Duration)

		body, err := renderBatch(report, outputFormat())
		if err != nil {
			return err
		}
		if err := emit(cmd.OutOrStdout(), batchOutputPath, body); err != nil {
			return err
		}
		if !batchQuiet {
			failed := 0
			for _, r := range report.Results {
				if _, isErr := r.Err(); isErr {
					failed++
				}
			}
			okf(cmd.ErrOrStderr(), "Ran %d analyses (%d without a result) in %s [run %s]", len(report.Results), failed, report.Duration, report.RunID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringVarP(&batchPlanPath, "plan", "p", "", "path to the YAML plan")
	batchCmd.Flags().StringVarP(&batchOutputPath, "output", "o", "", "optional path to write the results")
	batchCmd.Flags().BoolVarP(&batchQuiet, "quiet", "q", false, "suppress the summary line")
	_ = batchCmd.MarkFlagRequired("plan")
}

func loadPlan(path string) (*Plan, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	var p Plan
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", path, err)
	}
	if len(p.Analyses) == 0 {
		return nil, fmt.Errorf("plan %s lists no analyses", path)
	}
	return &p, nil
}

// buildPlan validates every entry, reporting all invalid ones at once.
func buildPlan(p *Plan) ([]engine.Analysis, error) {
	out := make([]engine.Analysis, len(p.Analyses))
	var errs []error
	for i, req := range p.Analyses {
		a, err := engine.Build(req)
		if err != nil {
			errs = append(errs, fmt.Errorf("plan entry %d: %w", i+1, err))
			continue
		}
		if a.Kind() == engine.KindHistogram {
			warnf("plan entry %d: unknown analysis type %q, falling back to a histogram", i+1, req.Type)
		}
		out[i] = a
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

// runPlan executes analyses concurrently, at most workers at a time, and
// returns results in plan order.
func runPlan(ctx context.Context, analyses []engine.Analysis, ds *dataset.Dataset, workers int) ([]*engine.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]*engine.Result, len(analyses))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, workers))
	for i, a := range analyses {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			results[i] = engine.Execute(a, ds)
			logger.Debug("analysis finished", "index", i+1, "kind", a.Kind(), "elapsed", time.Since(start))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func renderBatch(r *BatchReport, format string) (string, error) {
	if format == cfgpkg.FormatJSON {
		return toJSON(r)
	}
	var b strings.Builder
	if format == cfgpkg.FormatMarkdown {
		b.WriteString("[BATCH]\n")
		b.WriteString(fmt.Sprintf("Run: %s\nDataset: %s\nRows: %d\nAnalyses: %d\n", r.RunID, r.Dataset, r.Rows, len(r.Results)))
	}
	for i, res := range r.Results {
		body, err := renderResult(res, format)
		if err != nil {
			return "", err
		}
		b.WriteString(fmt.Sprintf("\n#%d ", i+1))
		b.WriteString(body)
	}
	return b.String(), nil
}
