package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/parkos/parkos/sim"
)

// hubsCmd prints the registry in lookup order.
var hubsCmd = &cobra.Command{
	Use:   "hubs",
	Short: "List registry hubs in lookup order",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustConfig(cmd)
		reg, err := cfg.Registry()
		if err != nil {
			logrus.Fatalf("Failed to load registry: %v", err)
		}
		printHubs(os.Stdout, reg)
	},
}

func printHubs(w io.Writer, reg *sim.Registry) {
	for i, h := range reg.Hubs() {
		marker := ""
		if h.Preset {
			marker = " *"
		}
		fmt.Fprintf(w, "%d. %s%s (%.3f, %.3f)\n", i+1, h.Key, marker, h.Latitude, h.Longitude)
		for _, c := range h.ParkingCandidates {
			fmt.Fprintf(w, "   - %s [%s] %dm %s\n", c.Name, c.Category.DisplayName(), c.BaseDistanceMeters, c.Priority)
		}
	}
	fmt.Fprintln(w, "* preset destination")
}
