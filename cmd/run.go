package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/parkos/parkos/sim"
	"github.com/parkos/parkos/sim/publish"
)

var fastMode bool // Run on the virtual clock instead of waiting in real time

// runCmd submits each destination in turn and streams the console.
var runCmd = &cobra.Command{
	Use:   "run [destination...]",
	Short: "Submit destinations one after another and stream the console",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustConfig(cmd)

		var scheduler sim.Scheduler
		var drive func(*sim.Session)
		if fastMode {
			vs := sim.NewVirtualScheduler(time.Now())
			scheduler = vs
			drive = func(*sim.Session) { vs.RunUntilIdle() }
		} else {
			scheduler = sim.NewRealtimeScheduler()
			drive = func(s *sim.Session) { <-s.Settled() }
		}

		s, err := newSession(cfg, scheduler)
		if err != nil {
			logrus.Fatalf("Failed to create session: %v", err)
		}
		defer s.Close()
		s.AddListener(publish.NewLogPublisher(nil))

		if err := runQueries(os.Stdout, s, drive, args); err != nil {
			logrus.Fatalf("Run aborted: %v", err)
		}
		logrus.Info("Run complete.")
	},
}

// runQueries submits each query, waits for it to settle via drive and prints
// the outcome. Unknown destinations are reported and skipped.
func runQueries(w io.Writer, s *sim.Session, drive func(*sim.Session), queries []string) error {
	console := NewConsole(w)
	s.Observe(console.Observe)
	for _, q := range queries {
		if _, err := s.Submit(q); err != nil {
			if errors.Is(err, sim.ErrResolution) {
				fmt.Fprintln(w)
				continue
			}
			return fmt.Errorf("submitting %q: %w", q, err)
		}
		drive(s)
		printResult(w, s.Snapshot())
		fmt.Fprintln(w)
	}
	return nil
}

func init() {
	runCmd.Flags().BoolVar(&fastMode, "fast", false, "Run on a virtual clock (no real waiting)")
}
