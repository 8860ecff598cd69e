package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roamsim/roamsim/pkg/config"
	"github.com/roamsim/roamsim/pkg/history"
	"github.com/roamsim/roamsim/pkg/logx"
	"github.com/roamsim/roamsim/pkg/metrics"
	"github.com/roamsim/roamsim/pkg/mqtt"
	"github.com/roamsim/roamsim/pkg/telem"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured walk under one strategy",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			jsonOut, _ := cmd.Flags().GetBool("json")
			strategyOverride, _ := cmd.Flags().GetString("strategy")
			csvPath, _ := cmd.Flags().GetString("csv")

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if strategyOverride != "" {
				cfg.Strategy = strategyOverride
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			logger := logx.New(cfg.LogLevel)
			store := telem.NewStore(cfg.Telemetry)
			clock := newSimClock(cfg.TickIntervalMS)

			engine, err := buildEngine(cfg, cfg.Strategy, store, logger, clock)
			if err != nil {
				return err
			}

			var metricsServer *metrics.Server
			if cfg.Metrics.Enabled {
				metricsServer = metrics.NewServer(store, logger)
				if err := metricsServer.Start(cfg.Metrics.Listen); err != nil {
					return err
				}
				defer metricsServer.Stop()
			}

			mqttClient := mqtt.NewClient(&cfg.MQTT, logger)
			if err := mqttClient.Connect(); err != nil {
				return err
			}
			defer mqttClient.Disconnect()

			var hist *history.Store
			var runID int64
			if cfg.History.Enabled {
				hist, err = history.Open(cfg.History.Path)
				if err != nil {
					return err
				}
				defer hist.Close()
				runID, err = hist.BeginRun(cfg.Station, cfg.Strategy)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			positions := cfg.BuildPath().Positions()
			for _, pos := range positions {
				clock.Step()
				event := engine.OnTick(pos)

				var sample telem.Sample
				if latest := store.GetSamples(cfg.Station, 1); len(latest) > 0 {
					sample = latest[0]
				}

				if metricsServer != nil {
					metricsServer.RecordTick(sample)
				}
				if err := mqttClient.PublishSample(sample); err != nil {
					logger.Warn("Failed to publish sample", "error", err.Error())
				}
				if hist != nil {
					if err := hist.SaveSample(runID, sample); err != nil {
						return err
					}
				}

				if event == nil {
					continue
				}
				if metricsServer != nil {
					metricsServer.RecordHandover(*event, cfg.Strategy)
				}
				if err := mqttClient.PublishHandover(*event); err != nil {
					logger.Warn("Failed to publish handover", "error", err.Error())
				}
				if hist != nil {
					if err := hist.SaveEvent(runID, *event); err != nil {
						return err
					}
				}
				if jsonOut {
					json.NewEncoder(out).Encode(event)
				} else {
					fmt.Fprintf(out, "x=%6.1f  %-12s -> %-12s  (%s)\n",
						event.Position.X, displayAP(event.From), event.To, event.Reason)
				}
			}

			if csvPath != "" {
				f, err := os.Create(csvPath)
				if err != nil {
					return fmt.Errorf("failed to create CSV file: %w", err)
				}
				defer f.Close()
				if err := store.ExportCSV(f, cfg.Station); err != nil {
					return fmt.Errorf("failed to export CSV: %w", err)
				}
			}

			summary := map[string]interface{}{
				"strategy":  cfg.Strategy,
				"ticks":     engine.Ticks(),
				"handovers": engine.HandoverCount(),
				"final_ap":  engine.CurrentAP(),
			}
			if jsonOut {
				return json.NewEncoder(out).Encode(summary)
			}
			fmt.Fprintf(out, "\n%s: %d ticks, %d handovers, final AP %s\n",
				cfg.Strategy, engine.Ticks(), engine.HandoverCount(), displayAP(engine.CurrentAP()))
			return nil
		},
	}

	cmd.Flags().String("strategy", "", "Override the configured strategy (ssf, llf or mcdm)")
	cmd.Flags().String("csv", "", "Export the station's telemetry to a CSV file")
	return cmd
}

func displayAP(ap string) string {
	if ap == "" {
		return "(none)"
	}
	return ap
}
