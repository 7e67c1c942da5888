package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dvd/internal/deps"
	"dvd/internal/preflight"
)

type statusOutput struct {
	ConfigPath   string             `json:"config_path"`
	DatabaseRoot string             `json:"database_root"`
	Dependencies []deps.Status      `json:"dependencies"`
	Checks       []preflight.Result `json:"checks"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var checkNetwork bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show tool availability and storage readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			runCtx := runContext(cmd)
			status := statusOutput{
				ConfigPath:   ctx.configPath,
				DatabaseRoot: cfg.Paths.DatabaseRoot,
				Dependencies: preflight.CheckSystemDeps(runCtx, cfg),
				Checks:       preflight.RunAll(runCtx, cfg),
			}
			if checkNetwork {
				status.Checks = append(status.Checks, preflight.CheckYouTube(runCtx, "", cfg.YouTube))
			}
			if jsonOutput {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			var lines []string
			lines = append(lines, renderSectionHeader("Configuration", colorize)...)
			configPath := status.ConfigPath
			if configPath == "" {
				configPath = "(defaults)"
			}
			lines = append(lines,
				renderStatusLine("Config file", statusInfo, configPath, colorize),
				renderStatusLine("Database root", statusInfo, status.DatabaseRoot, colorize),
				renderStatusLine("Sampling", statusInfo, fmt.Sprintf("%gfps, %dp cap, jpeg q%d", cfg.Video.FPS, cfg.Video.Resolution, cfg.Video.JPEGQuality), colorize),
				"",
			)
			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			rows := make([][]string, 0, len(status.Dependencies))
			for _, dep := range status.Dependencies {
				state := "ok"
				if !dep.Available {
					state = dep.Detail
				}
				rows = append(rows, []string{dep.Name, dep.Command, dep.Version, yesNo(dep.Available), state})
			}
			lines = append(lines, renderTable(dependencyColumns, rows), "")
			lines = append(lines, renderSectionHeader("Checks", colorize)...)
			for _, check := range status.Checks {
				lines = append(lines, preflightLine(check, colorize))
			}
			if blocking := preflight.Blocking(status.Checks); len(blocking) > 0 {
				lines = append(lines, "", renderStatusLine("Ready", statusError, fmt.Sprintf("%d blocking check(s) failed", len(blocking)), colorize))
			} else {
				lines = append(lines, "", renderStatusLine("Ready", statusOK, "yes", colorize))
			}
			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}

	addJSONFlag(cmd, &jsonOutput)
	cmd.Flags().BoolVar(&checkNetwork, "network", false, "Also check that YouTube is reachable")
	return cmd
}
