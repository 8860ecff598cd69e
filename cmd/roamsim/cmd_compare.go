package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roamsim/roamsim/pkg"
	"github.com/roamsim/roamsim/pkg/config"
	"github.com/roamsim/roamsim/pkg/logx"
	"github.com/roamsim/roamsim/pkg/telem"
)

// compareResult holds one strategy's replay of the walk.
type compareResult struct {
	Strategy   string              `json:"strategy"`
	Timeline   []string            `json:"timeline"` // connected AP per tick
	Handovers  int                 `json:"handovers"`
	Events     []pkg.HandoverEvent `json:"events"`
	MeanRSSI   float64             `json:"mean_rssi_dbm"`
	MeanDelay  float64             `json:"mean_delay_ms"`
	FinalAP    string              `json:"final_ap"`
	TicksTotal int                 `json:"ticks"`
}

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Replay the walk under several strategies and compare",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			jsonOut, _ := cmd.Flags().GetBool("json")
			names, _ := cmd.Flags().GetStringSlice("strategies")

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			positions := cfg.BuildPath().Positions()
			results := make([]compareResult, 0, len(names))
			for _, name := range names {
				res, err := replayWalk(cfg, name, positions)
				if err != nil {
					return err
				}
				results = append(results, res)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"results":    results,
					"agreements": pairwiseAgreement(results),
				})
			}

			printTimeline(out, positions, results)
			printSummary(out, results)
			return nil
		},
	}

	cmd.Flags().StringSlice("strategies", []string{"ssf", "llf", "mcdm"}, "Strategies to compare")
	return cmd
}

// replayWalk runs one strategy over the walk with its own load state and
// telemetry store, so strategies never influence each other.
func replayWalk(cfg *config.Config, strategyName string, positions []pkg.Position) (compareResult, error) {
	logger := logx.NewWithWriter("error", io.Discard)
	store := telem.NewStore(cfg.Telemetry)
	clock := newSimClock(cfg.TickIntervalMS)

	engine, err := buildEngine(cfg, strategyName, store, logger, clock)
	if err != nil {
		return compareResult{}, err
	}

	res := compareResult{Strategy: strategyName}
	var rssiSum, delaySum float64
	var connectedTicks int
	for _, pos := range positions {
		clock.Step()
		engine.OnTick(pos)
		res.Timeline = append(res.Timeline, engine.CurrentAP())

		if latest := store.GetSamples(cfg.Station, 1); len(latest) > 0 {
			for _, row := range latest[0].Rows {
				if row.AP == latest[0].ConnectedAP {
					rssiSum += row.RSSIdBm
					delaySum += row.DelayMs
					connectedTicks++
				}
			}
		}
	}

	res.Handovers = engine.HandoverCount()
	res.Events = engine.EventHistory()
	res.FinalAP = engine.CurrentAP()
	res.TicksTotal = engine.Ticks()
	if connectedTicks > 0 {
		res.MeanRSSI = rssiSum / float64(connectedTicks)
		res.MeanDelay = delaySum / float64(connectedTicks)
	}
	return res, nil
}

// pairwiseAgreement computes, for every strategy pair, the fraction of
// ticks on which both were connected to the same AP.
func pairwiseAgreement(results []compareResult) map[string]float64 {
	agreements := make(map[string]float64)
	for i := 0; i < len(results); i++ {
		for j := i + 1; j < len(results); j++ {
			a, b := results[i], results[j]
			n := len(a.Timeline)
			if len(b.Timeline) < n {
				n = len(b.Timeline)
			}
			if n == 0 {
				continue
			}
			same := 0
			for k := 0; k < n; k++ {
				if a.Timeline[k] == b.Timeline[k] {
					same++
				}
			}
			key := a.Strategy + "/" + b.Strategy
			agreements[key] = float64(same) / float64(n)
		}
	}
	return agreements
}

func printTimeline(out io.Writer, positions []pkg.Position, results []compareResult) {
	fmt.Fprintf(out, "%8s", "x")
	for _, res := range results {
		fmt.Fprintf(out, "  %-12s", res.Strategy)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("-", 8+14*len(results)))

	for i, pos := range positions {
		fmt.Fprintf(out, "%8.1f", pos.X)
		for _, res := range results {
			ap := ""
			if i < len(res.Timeline) {
				ap = res.Timeline[i]
			}
			fmt.Fprintf(out, "  %-12s", displayAP(ap))
		}
		fmt.Fprintln(out)
	}
}

func printSummary(out io.Writer, results []compareResult) {
	fmt.Fprintln(out)
	for _, res := range results {
		fmt.Fprintf(out, "%-6s %d handovers, mean RSSI %7.2f dBm, mean delay %6.2f ms, final AP %s\n",
			res.Strategy, res.Handovers, res.MeanRSSI, res.MeanDelay, displayAP(res.FinalAP))
	}

	agreements := pairwiseAgreement(results)
	if len(agreements) == 0 {
		return
	}
	fmt.Fprintln(out)
	for i := 0; i < len(results); i++ {
		for j := i + 1; j < len(results); j++ {
			key := results[i].Strategy + "/" + results[j].Strategy
			if v, ok := agreements[key]; ok {
				fmt.Fprintf(out, "agreement %-10s %5.1f%%\n", key, v*100)
			}
		}
	}
}
