package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/parkos/parkos/sim"
	"github.com/parkos/parkos/sim/trace"
)

var (
	benchRuns    int      // Number of requests to simulate
	benchQueries []string // Destinations cycled through; default = registry presets
)

// benchCmd runs many requests on the virtual clock and prints the summary.
var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run many requests on a virtual clock and summarize the decisions",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustConfig(cmd)
		if benchRuns <= 0 {
			logrus.Fatalf("--runs must be positive, got %d", benchRuns)
		}

		startTime := time.Now()
		sched := sim.NewVirtualScheduler(startTime)
		s, err := newSession(cfg, sched)
		if err != nil {
			logrus.Fatalf("Failed to create session: %v", err)
		}
		defer s.Close()

		queries := benchQueries
		if len(queries) == 0 {
			queries = s.Registry().Presets()
		}
		if len(queries) == 0 {
			logrus.Fatalf("No destinations: pass --query or mark registry hubs as presets")
		}

		summary := runBench(s, sched, queries, benchRuns)
		logrus.Infof("Simulated %d requests (%s virtual) in %s", benchRuns, sched.Elapsed(), time.Since(startTime))
		if err := printSummary(os.Stdout, summary); err != nil {
			logrus.Fatalf("Failed to print summary: %v", err)
		}
	},
}

// runBench submits runs requests, cycling through queries, and returns the
// trace summary. Resolution failures are counted, not fatal.
func runBench(s *sim.Session, sched *sim.VirtualScheduler, queries []string, runs int) *trace.TraceSummary {
	s.EnableTrace(trace.NewSessionTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions}))
	for i := 0; i < runs; i++ {
		q := queries[i%len(queries)]
		if _, err := s.Submit(q); err != nil {
			logrus.Debugf("bench request %d (%s): %v", i, q, err)
		}
		sched.RunUntilIdle()
	}
	return s.TraceSummary()
}

// printSummary writes the headline numbers, the spot distribution sorted by
// name, and the full summary as JSON.
func printSummary(w io.Writer, sum *trace.TraceSummary) error {
	fmt.Fprintln(w, "=== Simulation Summary ===")
	fmt.Fprintf(w, "Requests             : %d\n", sum.TotalRequests)
	fmt.Fprintf(w, "Assigned             : %d\n", sum.Assigned)
	fmt.Fprintf(w, "Resolution Failures  : %d\n", sum.ResolutionFailures)
	fmt.Fprintf(w, "Unexpected Failures  : %d\n", sum.UnexpectedFailures)
	if sum.Forecasts > 0 {
		fmt.Fprintf(w, "Deferral Rate        : %.3f\n", sum.DeferralRate)
	}
	if sum.Assigned > 0 {
		fmt.Fprintf(w, "Mean Wait (deferred) : %.2fs\n", sum.MeanWaitSeconds)
		fmt.Fprintf(w, "Walk Distance        : min %dm, mean %.1fm, max %dm\n",
			sum.MinDistanceMeters, sum.MeanDistanceMeters, sum.MaxDistanceMeters)
	}

	if len(sum.SpotDistribution) > 0 {
		fmt.Fprintln(w, "=== Spot Distribution ===")
		names := make([]string, 0, len(sum.SpotDistribution))
		for name := range sum.SpotDistribution {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s: %d\n", name, sum.SpotDistribution[name])
		}
	}

	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func init() {
	benchCmd.Flags().IntVar(&benchRuns, "runs", 1000, "Number of requests to simulate")
	benchCmd.Flags().StringSliceVar(&benchQueries, "query", nil, "Destinations to cycle through (default: registry presets)")
}
