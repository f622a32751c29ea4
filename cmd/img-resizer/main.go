package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"img-resizer-go/internal/config"
	"img-resizer-go/internal/logger"
	"img-resizer-go/internal/resizer"
	"img-resizer-go/internal/statistics"
	"img-resizer-go/internal/web"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile       string
	targetSizeKB  int64
	dimensions    string
	outputDir     string
	autoScale     bool
	maintainRatio bool
	parallel      bool
	verbose       bool
	quiet         bool
	port          int
)

// rootCmd resizes images by target file size and/or dimensions.
var rootCmd = &cobra.Command{
	Use:   "img-resizer [flags] <input>",
	Short: "Resize images by target file size and/or dimensions",
	Long: `img-resizer converts images to meet a target output file size and/or
target pixel dimensions, processing a single file or an entire
directory tree.

Given a target size, it binary-searches the encoding quality for the
best quality that still fits the byte budget. With --auto-scale it
additionally downscales the image step by step when no quality alone
can reach the target.

Supported inputs: JPEG, PNG, GIF, BMP, WebP, TIFF.
Outputs keep the input format; WebP outputs are encoded as JPEG.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runResize(args[0])
	},
}

// scanCmd lists discovered input images without processing them.
var scanCmd = &cobra.Command{
	Use:   "scan <input>",
	Short: "List images that would be processed, without resizing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(args[0])
	},
}

// serveCmd starts the web API server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web API server",
	Long: `Starts an HTTP server exposing the batch resizer:
- POST /api/resize submits a job
- POST /api/stop clears the running job
- GET  /api/status reports progress
- GET  /api/results returns the last batch's per-file results
- /ws streams per-file progress events over a websocket`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show detailed processing information")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress non-error output")

	rootCmd.Flags().Int64VarP(&targetSizeKB, "size", "s", 0, "target file size in KB")
	rootCmd.Flags().StringVarP(&dimensions, "dimensions", "d", "", "target dimensions (e.g. 800x600)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default: 'resized' subdirectory)")
	rootCmd.Flags().BoolVarP(&autoScale, "auto-scale", "c", false, "downscale the image to fit the target size")
	rootCmd.Flags().BoolVarP(&maintainRatio, "maintain-ratio", "r", false, "maintain aspect ratio when resizing")
	rootCmd.Flags().BoolVarP(&parallel, "parallel", "p", false, "process images in parallel")

	serveCmd.Flags().IntVar(&port, "port", 8080, "port to run the web server on")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(serveCmd)
}

// initConfig loads configuration file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.img-resizer")
		viper.AddConfigPath("/etc/img-resizer")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// runResize executes the batch resize and prints the summary.
func runResize(inputPath string) error {
	if targetSizeKB < 0 {
		return fmt.Errorf("target size must be non-negative, got %d KB", targetSizeKB)
	}

	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	width, height, err := resizer.ParseDimensions(dimensions)
	if err != nil {
		return err
	}

	log := setupLogger(cfg)
	stats := statistics.NewStatistics()

	opts := resizer.Options{
		InputPath:           inputPath,
		TargetSizeKB:        targetSizeKB,
		Width:               width,
		Height:              height,
		OutputDir:           outputDir,
		MaintainAspectRatio: maintainRatio || cfg.Resize.MaintainAspectRatio,
		AutoScale:           autoScale || cfg.Resize.AutoScale,
		Parallel:            parallel || cfg.Performance.Parallel,
		Workers:             cfg.Performance.WorkerThreads,
		Verbose:             verbose,
		DefaultQuality:      cfg.Resize.DefaultQuality,
		OutputDirName:       cfg.Resize.OutputDirName,
		OutputSuffix:        cfg.Resize.OutputSuffix,
	}

	files, err := resizer.CollectImages(inputPath)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no image files found in %s", inputPath)
	}

	if !quiet {
		fmt.Printf("Found %d image(s) to process\n", len(files))
	}

	rz := resizer.New(opts, log, stats)

	var bar *progressbar.ProgressBar
	if !quiet && cfg.Performance.ShowProgress {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("Processing"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		rz.SetProgressFunc(func(res resizer.FileResult) {
			_ = bar.Add(1)
		})
	}

	results := rz.Process(files)
	if bar != nil {
		_ = bar.Finish()
	}

	printSummary(results, opts.AutoScale)
	return nil
}

// printSummary reports the batch outcome. Per-image failures are part
// of the summary, not a process failure.
func printSummary(results []resizer.FileResult, autoScaleEnabled bool) {
	summary := resizer.Summarize(results)

	fmt.Println("\nProcessing Summary:")
	fmt.Printf("  Successful: %d\n", summary.Successful)
	fmt.Printf("  Failed: %d\n", summary.Failed)

	if summary.Successful > 0 {
		fmt.Printf("  Total saved: %d KB (%.1f%% reduction)\n",
			summary.TotalSaved/1024, summary.ReductionPercent())
	} else if summary.Failed > 0 && !autoScaleEnabled {
		fmt.Println("  Couldn't reach target file size; specify -c to auto scale images")
	}

	if verbose {
		fmt.Println("\nDetailed Results:")
		for _, res := range results {
			name := filepath.Base(res.InputPath)
			if res.Success {
				fmt.Printf("  ok   %s -> %s (%d KB -> %d KB) %s\n",
					name, filepath.Base(res.OutputPath),
					res.OriginalSize/1024, res.FinalSize/1024, res.Message)
			} else {
				fmt.Printf("  fail %s - %s\n", name, res.Message)
			}
		}
	}
}

// runScan lists discovered inputs and their sizes.
func runScan(inputPath string) error {
	files, err := resizer.CollectImages(inputPath)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no image files found in %s", inputPath)
	}

	var total int64
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		total += info.Size()
		fmt.Printf("  %8d KB  %s\n", info.Size()/1024, f)
	}
	fmt.Printf("\n%d image(s), %d KB total\n", len(files), total/1024)
	return nil
}

// runServe starts the web server and handles graceful shutdown.
func runServe() error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	server := web.NewServer(cfg, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.Start(port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	if !quiet {
		fmt.Printf("img-resizer API listening on http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
	}

	<-sigChan
	fmt.Println("\nShutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// setupLogger configures and returns a logger.
func setupLogger(cfg *config.Config) *logrus.Logger {
	opts := logger.Options{
		Level:      cfg.Logging.Level,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
		Console:    !quiet,
	}

	if verbose {
		opts.Level = "debug"
	}
	if quiet {
		opts.Level = "error"
	}

	log, err := logger.New(opts)
	if err != nil {
		log = logrus.New()
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
