package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/opflow/container"
	"github.com/kbukum/opflow/logger"
	"github.com/kbukum/opflow/operator"
	"github.com/kbukum/opflow/pipeline"
	"github.com/kbukum/opflow/validation"
	"github.com/kbukum/opflow/version"
)

// errRunFailed is returned when a run ends FAILED; main exits with 1.
var errRunFailed = errors.New("pipeline run failed")

const stopTimeout = 10 * time.Second

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	ro := &rootOptions{}
	root := &cobra.Command{
		Use:           "opflow",
		Short:         "Run dependency-ordered pipelines of operators",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&ro.configPath, "config", "c", "", "config file (searched for when empty)")

	root.AddCommand(
		newRunCmd(ro),
		newSnapshotsCmd(ro),
		newLevelsCmd(),
		newVersionCmd(),
	)
	return root
}

// withApp loads config, starts the components and stops them after fn.
func withApp(ctx context.Context, ro *rootOptions, fn func(*app) error) (err error) {
	cfg, err := loadAppConfig(ro.configPath)
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	if err := a.start(ctx); err != nil {
		_ = a.stop(context.Background())
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		err = errors.Join(err, a.stop(stopCtx))
	}()
	return fn(a)
}

func loadDefinition(path string, includeDirs []string) (*pipeline.Definition, pipeline.Loader, error) {
	def, err := pipeline.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	dirs := append([]string{filepath.Dir(path)}, includeDirs...)
	return def, pipeline.NewFileLoader(dirs...), nil
}

type runOptions struct {
	workers     int
	backfill    bool
	force       bool
	includeDirs []string
}

func newRunCmd(ro *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run <pipeline.yaml>",
		Short: "Execute a pipeline level by level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), ro, func(a *app) error {
				return runPipeline(cmd, a, args[0], opts)
			})
		},
	}
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "worker pool size (engine.workers when 0)")
	cmd.Flags().BoolVar(&opts.backfill, "backfill", false, "skip operators whose latest snapshot SUCCEEDED")
	cmd.Flags().BoolVar(&opts.force, "force", false, "overwrite inconsistent operator status and data model")
	cmd.Flags().StringSliceVarP(&opts.includeDirs, "include-dir", "I", nil, "extra directories searched for included pipelines")
	return cmd
}

func runPipeline(cmd *cobra.Command, a *app, path string, opts *runOptions) error {
	def, loader, err := loadDefinition(path, opts.includeDirs)
	if err != nil {
		return err
	}
	c, err := pipeline.Build(def, pipeline.DefaultRegistry(), loader,
		pipeline.WithContainerOptions(a.containerOptions()...),
		pipeline.WithOperatorLogging(logger.Get(logger.ComponentOperator)))
	if err != nil {
		return err
	}

	engine := a.cfg.Engine
	if cmd.Flags().Changed("workers") {
		engine.Workers = opts.workers
	}
	if cmd.Flags().Changed("backfill") {
		engine.Backfill = opts.backfill
	}
	if cmd.Flags().Changed("force") {
		engine.Force = opts.force
	}

	if err := c.Initialize(engine.Force); err != nil {
		return err
	}
	defer c.Uninitialize()

	res, err := c.Execute(cmd.Context(), container.WithWorkers(engine.Workers), container.WithBackfill(engine.Backfill))
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), c, res)
	if res.Status == operator.Failed {
		return fmt.Errorf("%w: %s", errRunFailed, strings.Join(res.Failed(), ", "))
	}
	return nil
}

func printResult(w io.Writer, c *container.Container, res *container.Result) {
	fmt.Fprintf(w, "container %s run %s: %s in %s\n", c.Name(), res.RunID, res.Status, res.Duration().Round(time.Millisecond))
	skipped := make(map[string]bool, len(res.Skipped))
	for _, name := range res.Skipped {
		skipped[name] = true
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OPERATOR\tSTATUS\tNOTE")
	for _, name := range c.Graph().Names() {
		note := ""
		if skipped[name] {
			note = "backfilled"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, res.Operators[name], note)
	}
	_ = tw.Flush()
}

type snapshotsOptions struct {
	operator string
	limit    int
	runID    string
}

func newSnapshotsCmd(ro *rootOptions) *cobra.Command {
	opts := &snapshotsOptions{}
	cmd := &cobra.Command{
		Use:   "snapshots <container>",
		Short: "List recent snapshots of a container or one of its operators",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := validation.New().Min("limit", opts.limit, 1).OptionalUUID("run-id", opts.runID)
			if err := v.Err(); err != nil {
				return err
			}
			return withApp(cmd.Context(), ro, func(a *app) error {
				return listSnapshots(cmd, a, args[0], opts)
			})
		},
	}
	cmd.Flags().StringVarP(&opts.operator, "operator", "o", "", "show records of this operator only")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "maximum number of records")
	cmd.Flags().StringVar(&opts.runID, "run-id", "", "only snapshots taken during this run")
	return cmd
}

func listSnapshots(cmd *cobra.Command, a *app, name string, opts *snapshotsOptions) error {
	ctx := cmd.Context()
	store := a.snapshots.Store()
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer tw.Flush()

	if opts.operator != "" && opts.runID == "" {
		recs, err := store.ListRecent(ctx, name, opts.operator, opts.limit)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "TAKEN AT\tSTATUS\tMODEL\tCOUNTERS")
		for _, r := range recs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.TakenAt.Format(time.RFC3339Nano), r.Status, r.DataModel, formatCounters(r.Counters))
		}
		return nil
	}

	// A run filter has to scan container snapshots; fetch without a limit.
	limit := opts.limit
	if opts.runID != "" {
		limit = 0
	}
	snaps, err := store.ListContainer(ctx, name, limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(tw, "TAKEN AT\tRUN\tSTATUS\tOPERATORS")
	shown := 0
	for _, s := range snaps {
		if opts.runID != "" && s.RunID != opts.runID {
			continue
		}
		ops := s.Operators
		if opts.operator != "" {
			rec := s.Operator(opts.operator)
			if rec == nil {
				continue
			}
			ops = map[string]*operator.Snapshot{opts.operator: rec}
		}
		if shown == opts.limit {
			break
		}
		shown++
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.TakenAt.Format(time.RFC3339Nano), s.RunID, s.Status, formatOperators(ops))
	}
	return nil
}

func formatCounters(counters map[string]int64) string {
	if len(counters) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(counters))
	for k := range counters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counters[k]))
	}
	return strings.Join(parts, ",")
}

func formatOperators(ops map[string]*operator.Snapshot) string {
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%s", name, ops[name].Status))
	}
	return strings.Join(parts, ",")
}

func newLevelsCmd() *cobra.Command {
	var includeDirs []string
	cmd := &cobra.Command{
		Use:   "levels <pipeline.yaml>",
		Short: "Print the execution level of every node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, loader, err := loadDefinition(args[0], includeDirs)
			if err != nil {
				return err
			}
			c, err := pipeline.Build(def, pipeline.DefaultRegistry(), loader)
			if err != nil {
				return err
			}
			levels, err := c.Levels()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, names := range levels {
				fmt.Fprintf(out, "%d: %s\n", i, strings.Join(names, " "))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&includeDirs, "include-dir", "I", nil, "extra directories searched for included pipelines")
	return cmd
}

func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info := version.Get()
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), info.Short())
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), info.String())
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print the version only")
	return cmd
}
