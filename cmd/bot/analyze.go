package main

import (
	"encoding/json"
	"fmt"
	"io"

	"BistRadar/internal/engine"
	"BistRadar/internal/model"
	"BistRadar/internal/notifier"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var (
		modeFlag string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Analyze one symbol and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := model.ParseMode(modeFlag)
			if err != nil {
				return err
			}
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			a := newApp(cfg, log)
			defer a.close()

			symbol := model.NormalizeSymbol(args[0], cfg.Universe.MarketSuffix)
			ctx := engine.WithSource(cmd.Context(), model.SourceCLI)
			report, err := a.engine.AnalyzeOne(ctx, symbol, mode)
			if err != nil {
				if model.IsAbsent(err) {
					return fmt.Errorf("%s: %s", symbol, notifier.NoDataText)
				}
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), notifier.FormatSymbolReport(report))
			return err
		},
	}
	cmd.Flags().StringVar(&modeFlag, "mode", string(model.ModeComposite), "ma, ai, rsi, momentum or top5")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}

func newScanCmd(opts *rootOptions) *cobra.Command {
	var (
		modeFlag string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the whole universe and print the ranking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := model.ParseMode(modeFlag)
			if err != nil {
				return err
			}
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			a := newApp(cfg, log)
			defer a.close()

			ctx := engine.WithSource(cmd.Context(), model.SourceCLI)
			report, err := a.engine.AnalyzeUniverse(ctx, mode)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), notifier.FormatUniverseReport(report))
			return err
		},
	}
	cmd.Flags().StringVar(&modeFlag, "mode", string(model.ModeComposite), "ma, ai, rsi, momentum or top5")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
