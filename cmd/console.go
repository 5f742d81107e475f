package cmd

import (
	"fmt"
	"io"
	"sync"

	"github.com/parkos/parkos/sim"
)

// Console streams a session's log records to a writer as they appear.
// Register Observe with Session.Observe.
type Console struct {
	mu        sync.Mutex
	w         io.Writer
	requestID string
	printed   int
}

// NewConsole creates a console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Observe prints the records of snap not yet shown. A new request ID resets
// the position, matching the log clear on every submit.
func (c *Console) Observe(snap sim.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if snap.RequestID != c.requestID {
		c.requestID = snap.RequestID
		c.printed = 0
	}
	for _, rec := range snap.Logs[min(c.printed, len(snap.Logs)):] {
		fmt.Fprintln(c.w, rec.String())
	}
	c.printed = len(snap.Logs)
}

// printResult writes the locked spot, walking time and map link for snap.
func printResult(w io.Writer, snap sim.Snapshot) {
	if snap.Result == nil {
		fmt.Fprintf(w, "No spot assigned (status %s)\n", snap.Status)
		return
	}
	r := snap.Result
	fmt.Fprintln(w, "=== Assignment ===")
	fmt.Fprintf(w, "Hub          : %s\n", snap.HubKey)
	fmt.Fprintf(w, "Spot         : %s\n", r.SpotName)
	fmt.Fprintf(w, "Category     : %s\n", r.Category.DisplayName())
	fmt.Fprintf(w, "Walk         : %dm (~%d min)\n", r.FinalDistanceMeters, r.WalkMinutes())
	if snap.ElapsedWaitSeconds > 0 {
		fmt.Fprintf(w, "Waited       : %.1fs\n", snap.ElapsedWaitSeconds)
	}
	fmt.Fprintf(w, "Map          : %s\n", sim.EmbedURL(r.HubCoordinates))
}
