package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dunamismax/pixelconvert/internal/domain"
	"github.com/dunamismax/pixelconvert/internal/pipeline"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type convertOptions struct {
	format       string
	outDir       string
	workers      int
	heicPref     string
	maxFileBytes int64
	verbose      bool
}

func newConvertCommand() *cobra.Command {
	opts := convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert [flags] <file>...",
		Short: "Convert images to PNG or JPEG",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.format, "format", "f", string(domain.OutputPNG), "output format: png or jpeg")
	flags.StringVarP(&opts.outDir, "out", "o", ".", "directory for the converted file or zip archive")
	flags.IntVarP(&opts.workers, "workers", "w", 1, "files converted in parallel")
	flags.StringVar(&opts.heicPref, "heic", "auto", "HEIC decoder preference: auto, native, fallback or none")
	flags.Int64Var(&opts.maxFileBytes, "max-file-bytes", pipeline.DefaultMaxFileBytes, "per-file size limit")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log skipped files as they happen")
	return cmd
}

func runConvert(cmd *cobra.Command, opts convertOptions, paths []string) error {
	out := cmd.OutOrStdout()

	target, ok := domain.ParseOutputFormat(opts.format)
	if !ok {
		return domain.ErrInvalidOutputFormat
	}
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	uploads, err := readInputs(paths, opts.maxFileBytes)
	if err != nil {
		return err
	}

	if err := pipeline.Startup(); err != nil {
		return fmt.Errorf("start image runtime: %w", err)
	}
	defer pipeline.Shutdown()

	tempDir, err := os.MkdirTemp("", "pixelconvert-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)
	temp, err := pipeline.NewDirTempStore(tempDir)
	if err != nil {
		return err
	}

	logger := zerolog.Nop()
	if opts.verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	}

	capability := pipeline.ResolveHeicCapability(opts.heicPref)
	converter := pipeline.NewConverter(
		pipeline.NewDecoder(capability),
		temp,
		pipeline.WithMaxFileBytes(opts.maxFileBytes),
		pipeline.WithWorkers(opts.workers),
		pipeline.WithLogger(logger),
	)

	result, err := converter.ConvertBatch(context.Background(), uploads, target)
	if err != nil && !errors.Is(err, pipeline.ErrNoConvertibleFiles) {
		return err
	}

	rows := []summaryRow{
		{Label: "Target format", Value: target.Label()},
		{Label: "Files given", Value: strconv.Itoa(len(uploads))},
		{Label: "Converted", Value: strconv.Itoa(len(result.Outputs()))},
		{Label: "Skipped", Value: strconv.Itoa(len(result.Errors))},
	}

	if errors.Is(err, pipeline.ErrNoConvertibleFiles) {
		fmt.Fprintln(out, renderSummary("pixelconvert", rows))
		printErrors(cmd, result.Errors)
		return ErrNothingConverted
	}

	bundle, err := pipeline.Package(result.Outputs(), time.Now())
	if err != nil {
		return err
	}
	dest := filepath.Join(opts.outDir, bundle.Name)
	if err := os.WriteFile(dest, bundle.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	if abs, absErr := filepath.Abs(dest); absErr == nil {
		dest = abs
	}
	rows = append(rows, summaryRow{Label: "Written to", Value: dest})

	fmt.Fprintln(out, renderSummary("pixelconvert", rows))
	printErrors(cmd, result.Errors)
	return nil
}

// readInputs loads each file, leaving Data empty when it is already over the size limit.
func readInputs(paths []string, maxFileBytes int64) ([]pipeline.Upload, error) {
	uploads := make([]pipeline.Upload, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", path)
		}

		upload := pipeline.Upload{Filename: filepath.Base(path), Size: info.Size()}
		if maxFileBytes <= 0 || info.Size() <= maxFileBytes {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			upload.Data = data
			upload.Size = int64(len(data))
		}
		uploads = append(uploads, upload)
	}
	return uploads, nil
}

func printErrors(cmd *cobra.Command, errs []string) {
	for _, e := range errs {
		fmt.Fprintln(cmd.OutOrStdout(), warnStyle.Render("skipped: "+e))
	}
}
