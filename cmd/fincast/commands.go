package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"FinCast/internal/di"
	"FinCast/internal/domain/models"
	"FinCast/internal/usecase"
	"FinCast/pkg/config"
)

var (
	configPath   string
	startDate    string
	endDate      string
	outputFormat string
	modelKind    string
	targetColumn string
	windowSize   int

	cfg *config.Config

	// newToolkit is replaced in tests.
	newToolkit = di.InitializeToolkit

	rootCmd = &cobra.Command{
		Use:   "fincast",
		Short: "Fetch daily market data and run short horizon forecasts",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = loadConfig(configPath)
			return err
		},
		SilenceUsage: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the prefetch consumer",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	fetchCmd = &cobra.Command{
		Use:   "fetch [ticker]",
		Short: "Resolve daily candles through the provider cascade",
		Args:  cobra.ExactArgs(1),
		RunE:  runFetch,
	}
	forecastCmd = &cobra.Command{
		Use:   "forecast [ticker]",
		Short: "Fetch a ticker and run one forecasting model over it",
		Args:  cobra.ExactArgs(1),
		RunE:  runForecast,
	}
	checkCmd = &cobra.Command{
		Use:   "check [ticker]",
		Short: "Check whether a ticker is in the supported catalog",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}
	symbolsCmd = &cobra.Command{
		Use:   "symbols",
		Short: "List the supported tickers",
		Args:  cobra.NoArgs,
		RunE:  runSymbols,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "config file path, empty for built-in defaults")

	for _, c := range []*cobra.Command{fetchCmd, forecastCmd} {
		c.Flags().StringVar(&startDate, "start", "", "first day, YYYY-MM-DD (default one year before --end)")
		c.Flags().StringVar(&endDate, "end", "", "last day, YYYY-MM-DD (default today)")
	}
	fetchCmd.Flags().StringVarP(&outputFormat, "output", "o", "json", "output format: json or csv")
	forecastCmd.Flags().StringVarP(&modelKind, "model", "m", string(models.KindTransformer), "model: transformer, lstm or prophet")
	forecastCmd.Flags().StringVar(&targetColumn, "column", models.ColClose, "column to forecast")
	forecastCmd.Flags().IntVar(&windowSize, "window", 0, "window size (default from the model profile)")

	rootCmd.AddCommand(serveCmd, fetchCmd, forecastCmd, checkCmd, symbolsCmd)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadWithEnv(path)
}

func runServe(cmd *cobra.Command, _ []string) error {
	app, err := di.InitializeApp(cfg)
	if err != nil {
		return err
	}
	return app.RunContext(cmd.Context())
}

func runFetch(cmd *cobra.Command, args []string) error {
	start, end, err := dateRange(startDate, endDate, time.Now())
	if err != nil {
		return err
	}
	tk, err := newToolkit(cfg)
	if err != nil {
		return err
	}
	defer tk.Close()

	ds, err := tk.Cascade.Fetch(cmd.Context(), args[0], start, end)
	if err != nil {
		return err
	}
	switch outputFormat {
	case "csv":
		return writeCSV(cmd.OutOrStdout(), ds)
	case "json":
		return writeJSON(cmd.OutOrStdout(), models.StockDataResponse{
			Data:        ds.Records(),
			Columns:     ds.Columns,
			Source:      ds.Source,
			SourceLabel: ds.Label,
		})
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}
}

func runForecast(cmd *cobra.Command, args []string) error {
	start, end, err := dateRange(startDate, endDate, time.Now())
	if err != nil {
		return err
	}
	tk, err := newToolkit(cfg)
	if err != nil {
		return err
	}
	defer tk.Close()

	ds, err := tk.Cascade.Fetch(cmd.Context(), args[0], start, end)
	if err != nil {
		return err
	}
	res, err := tk.Runner.Run(cmd.Context(), ds, usecase.ForecastRequest{
		Kind:         models.ModelKind(modelKind),
		TargetColumn: targetColumn,
		WindowSize:   windowSize,
	})
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), res)
}

func runCheck(cmd *cobra.Command, args []string) error {
	tk, err := newToolkit(cfg)
	if err != nil {
		return err
	}
	defer tk.Close()
	return writeJSON(cmd.OutOrStdout(), tk.Symbols.Check(models.CheckTickerRequest{Ticker: args[0]}))
}

func runSymbols(cmd *cobra.Command, _ []string) error {
	tk, err := newToolkit(cfg)
	if err != nil {
		return err
	}
	defer tk.Close()
	return writeJSON(cmd.OutOrStdout(), tk.Symbols.List())
}

// dateRange parses --start and --end. An empty end is today and an empty
// start is 365 days before end.
func dateRange(start, end string, now time.Time) (time.Time, time.Time, error) {
	e := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if end != "" {
		t, err := time.Parse(models.DateLayout, end)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--end: %w", err)
		}
		e = t
	}
	s := e.AddDate(0, 0, -365)
	if start != "" {
		t, err := time.Parse(models.DateLayout, start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--start: %w", err)
		}
		s = t
	}
	if s.After(e) {
		return time.Time{}, time.Time{}, fmt.Errorf("start %s is after end %s", s.Format(models.DateLayout), e.Format(models.DateLayout))
	}
	return s, e, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(w io.Writer, ds *models.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Columns); err != nil {
		return err
	}
	row := make([]string, len(ds.Columns))
	for _, rec := range ds.Records() {
		for i, col := range ds.Columns {
			v, ok := rec[col]
			if !ok || v == nil {
				row[i] = ""
				continue
			}
			row[i] = fmt.Sprint(v)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
