// Command pcdemo renders a parallel-coordinates chart of a CSV or Excel
// file to PNG.
package main

import (
	"fmt"
	"image/png"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/parcoords"
	"github.com/gogpu/parcoords/backend"
	_ "github.com/gogpu/parcoords/backend/native"
	"github.com/gogpu/parcoords/dataset"
)

var (
	outputPath  string
	configPath  string
	backendName string
	sheet       string
	colorBy     string
	columns     []string
	ordinal     []string
	brushes     []string
	samples     int
	verbose     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pcdemo [input.csv|input.xlsx]",
		Short: "Render a parallel-coordinates chart to PNG",
		Long: `pcdemo loads a table, optionally brushes some axes and writes the
rendered chart as a PNG. Without an input file it plots a generated
dataset.`,
		Args: cobra.MaximumNArgs(1),
		RunE: run,
	}

	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "parcoords.png", "Output PNG path")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML chart config")
	rootCmd.Flags().StringVar(&backendName, "backend", "", "GPU backend (default: best available)")
	rootCmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet of an Excel input (default: first)")
	rootCmd.Flags().StringVar(&colorBy, "color-by", "", "Column that keys line colour")
	rootCmd.Flags().StringSliceVar(&columns, "columns", nil, "Columns to plot, in axis order")
	rootCmd.Flags().StringSliceVar(&ordinal, "ordinal", nil, "Numeric columns to treat as integer categories")
	rootCmd.Flags().StringArrayVarP(&brushes, "brush", "b", nil, "Brush an axis as name=lo:hi in column units (repeatable)")
	rootCmd.Flags().IntVar(&samples, "samples", 2000, "Rows of the generated dataset")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log chart activity to stderr")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.DiscardHandler)
	if verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		parcoords.SetLogger(logger)
	}

	cfg := parcoords.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = parcoords.LoadConfig(configPath); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	opts := dataset.Options{Columns: columns, Ordinal: ordinal, ColorBy: colorBy}
	tbl, err := load(args, opts)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	dev, name, err := openDevice(logger)
	if err != nil {
		return err
	}
	defer dev.Close()

	chart, err := parcoords.NewChart(cmd.Context(), dev, tbl.Dataset, cfg)
	if err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	defer chart.Destroy()

	for _, b := range brushes {
		axis, lo, hi, err := parseBrush(chart, b)
		if err != nil {
			return err
		}
		if err := chart.SetFilter(axis, lo, hi); err != nil {
			return fmt.Errorf("brush %q: %w", b, err)
		}
	}

	img, err := chart.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := chart.Err(); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	p.Fprintf(cmd.OutOrStdout(), "%s: %d of %d samples selected across %d axes (%s backend)\n",
		outputPath, chart.Selection().GetCardinality(), chart.SampleCount(), chart.Len(), name)
	return nil
}

func load(args []string, opts dataset.Options) (*dataset.Table, error) {
	if len(args) == 0 {
		return generated(samples, opts)
	}
	path := args[0]
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return dataset.ReadCSV(f, opts)
	case ".xlsx", ".xlsm":
		return dataset.ReadXLSX(path, sheet, opts)
	default:
		return nil, fmt.Errorf("unsupported input %q (want .csv or .xlsx)", path)
	}
}

func openDevice(logger *slog.Logger) (backend.Device, string, error) {
	if backendName == "" {
		return backend.Default(logger)
	}
	dev, err := backend.Open(backendName, logger)
	if err != nil {
		return nil, "", fmt.Errorf("backend %q: %w (available: %s)",
			backendName, err, strings.Join(backend.Available(), ", "))
	}
	return dev, backendName, nil
}

// parseBrush reads name=lo:hi.
func parseBrush(c *parcoords.Chart, s string) (axis int, lo, hi float64, err error) {
	name, rng, ok := strings.Cut(s, "=")
	if !ok {
		return 0, 0, 0, fmt.Errorf("brush %q: want name=lo:hi", s)
	}
	axis = -1
	for i := range c.Len() {
		if c.Name(i) == name {
			axis = i
			break
		}
	}
	if axis < 0 {
		return 0, 0, 0, fmt.Errorf("brush %q: no column %q", s, name)
	}
	los, his, ok := strings.Cut(rng, ":")
	if !ok {
		return 0, 0, 0, fmt.Errorf("brush %q: want name=lo:hi", s)
	}
	if lo, err = strconv.ParseFloat(los, 64); err != nil {
		return 0, 0, 0, fmt.Errorf("brush %q: %w", s, err)
	}
	if hi, err = strconv.ParseFloat(his, 64); err != nil {
		return 0, 0, 0, fmt.Errorf("brush %q: %w", s, err)
	}
	return axis, lo, hi, nil
}

// generated builds a correlated demo table with one categorical column.
func generated(n int, opts dataset.Options) (*dataset.Table, error) {
	if n <= 0 {
		return nil, fmt.Errorf("samples must be positive, got %d", n)
	}
	r := rand.New(rand.NewPCG(1, 2))
	cols := map[string][]float64{}
	names := []string{"weight", "power", "economy", "cylinders", "year"}
	for i := range n {
		cyl := float64(4 + 2*r.IntN(3))
		weight := 1500 + 350*cyl + 300*r.NormFloat64()
		power := 0.04*weight + 10*r.NormFloat64()
		economy := math.Max(8, 60-0.008*weight+3*r.NormFloat64())
		year := float64(1970 + i%13)
		for j, v := range []float64{weight, power, economy, cyl, year} {
			cols[names[j]] = append(cols[names[j]], v)
		}
	}

	ds := parcoords.Dataset{ColorBy: parcoords.NoColor}
	if len(opts.Columns) > 0 {
		names = opts.Columns
	}
	for i, name := range names {
		vals, ok := cols[name]
		if !ok {
			return nil, fmt.Errorf("no generated column %q", name)
		}
		ds.Variables = append(ds.Variables, parcoords.Variable{
			Name:    name,
			Ordinal: name == "cylinders" || name == "year",
			Values:  vals,
		})
		if name == opts.ColorBy || (opts.ColorBy == "" && name == "economy") {
			ds.ColorBy = i
		}
	}
	return &dataset.Table{Dataset: ds}, nil
}
