package main

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"bitfact/internal/factcache"
	"bitfact/internal/ir"
	"bitfact/internal/observ"
	"bitfact/internal/propagate"
	"bitfact/internal/query"
	"bitfact/internal/trace"
)

var (
	analyzeFunctions []string
	analyzeJobs      int
	analyzeCache     string
	analyzeArms      []string
)

func init() {
	analyzeCmd.Flags().StringSliceVar(&analyzeFunctions, "function", nil, "analyze only these functions")
	analyzeCmd.Flags().IntVar(&analyzeJobs, "jobs", 0, "functions populated in parallel (0 = GOMAXPROCS)")
	analyzeCmd.Flags().StringVar(&analyzeCache, "cache", "", `fact cache directory ("default" for the user cache dir)`)
	analyzeCmd.Flags().StringSliceVar(&analyzeArms, "arm", nil, "assume select NODE chose ARM, as NODE=ARM")
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <package.toml>",
	Short: "Populate facts for a package and print them per node",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

// analysis is the result for one function.
type analysis struct {
	fn     *ir.Function
	engine query.Engine
	cached bool
}

func runAnalyze(cmd *cobra.Command, args []string) (err error) {
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	defer func() {
		if err != nil {
			dumpRing(cmd)
		}
	}()

	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	colored, err := useColor(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "analyze", 0).WithExtra("path", args[0])
	defer span.End("")
	timer := observ.NewTimer()

	phase := timer.Begin("load")
	pkg, err := ir.LoadTOML(args[0])
	if err != nil {
		return err
	}
	fns, err := selectFunctions(pkg, analyzeFunctions)
	if err != nil {
		return err
	}
	timer.End(phase, fmt.Sprintf("%d functions", len(fns)))

	cache, err := openCache(analyzeCache)
	if err != nil {
		return err
	}

	phase = timer.Begin("populate")
	results := make([]analysis, len(fns))
	jobs := analyzeJobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(fns))))
	for i, f := range fns {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			idx := timer.Begin("populate " + f.Name)
			e := propagate.New(propagate.WithTracer(tracer, span.ID()))
			_, hit, err := cache.Populate(e, f)
			if err != nil {
				return err
			}
			timer.End(idx, cachedNote(hit))
			results[i] = analysis{fn: f, engine: e, cached: hit}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	timer.End(phase, "")

	if len(analyzeArms) > 0 {
		for i := range results {
			state, err := parseArms(results[i].fn, analyzeArms)
			if err != nil {
				return err
			}
			results[i].engine = results[i].engine.SpecializeGivenPredicate(state)
		}
	}

	out := cmd.OutOrStdout()
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(out)
		}
		writeReport(out, r, colored)
	}
	span.WithExtra("functions", strconv.Itoa(len(fns)))
	if showTimings {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	return nil
}

func cachedNote(hit bool) string {
	if hit {
		return "cached"
	}
	return ""
}

func selectFunctions(pkg *ir.Package, names []string) ([]*ir.Function, error) {
	if len(names) == 0 {
		return pkg.Functions(), nil
	}
	out := make([]*ir.Function, 0, len(names))
	for _, name := range names {
		f, err := pkg.Function(name)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func openCache(dir string) (*factcache.Cache, error) {
	switch dir {
	case "":
		return nil, nil
	case "default":
		return factcache.OpenDefault("bitfact")
	default:
		return factcache.Open(dir)
	}
}

// parseArms turns NODE=ARM pairs into predicate states for f. Pairs naming a
// node f does not have are skipped; ARM may be "default".
func parseArms(f *ir.Function, pairs []string) ([]query.PredicateState, error) {
	var state []query.PredicateState
	for _, pair := range pairs {
		name, armStr, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, errInvalidFlag("arm", pair, "NODE=ARM")
		}
		n, err := f.Node(name)
		if err != nil {
			continue
		}
		if n.Op != ir.OpSelect {
			return nil, fmt.Errorf("--arm %s: %s is %s, not sel", pair, n.Name, n.Op)
		}
		arm := query.DefaultArm
		if armStr != "default" {
			arm, err = strconv.Atoi(armStr)
			if err != nil || arm < 0 {
				return nil, errInvalidFlag("arm", pair, "NODE=ARM with ARM a case index or default")
			}
		}
		state = append(state, query.PredicateState{Select: n, Arm: arm})
	}
	return state, nil
}
