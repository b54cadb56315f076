package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/robottwo/codexplain/internal/config"
	"github.com/robottwo/codexplain/internal/core"
	"github.com/robottwo/codexplain/internal/provider"
	"github.com/robottwo/codexplain/internal/styles"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var BUILD_VERSION = "dev"

func init() {
	// Register custom zstd sink for compressed logging
	if err := zap.RegisterSink("zstd", newCompressedSink); err != nil {
		panic(fmt.Sprintf("failed to register zstd sink: %v", err))
	}
}

// main is the entry point of codexplain. It parses the command line,
// loads configuration, and explains the snippet given with --text or
// --file. Ctrl-C cancels an in-flight request or rate-limit wait.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		style := styles.New(os.Stderr)
		fmt.Fprintln(os.Stderr, style.ERROR("Error: "+err.Error()))
		fmt.Fprintln(os.Stderr, style.HINT("Run 'codexplain --help' for usage."))
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "codexplain (--text <code> | --file <path>)",
		Short: "AI-powered code explainer",
		Long: `codexplain explains a snippet of source code in plain language.

When OPENAI_API_KEY is set the snippet is sent to a chat-completion API.
Without a key, or when the API call fails, a basic local analysis is shown.

Providers (set with the "provider" config key or CODEXPLAIN_PROVIDER):
` + provider.Describe(),
		Version:       BUILD_VERSION,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load("", cmd.Flags())
			if err != nil {
				return err
			}

			logger, err := initializeLogger(cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync() // Flush any buffered log entries
			}()

			logger.Info("-------- new codexplain run --------",
				zap.Any("args", os.Args),
				zap.String("config_file", cfg.ConfigFile),
				zap.Bool("credential", cfg.HasCredential()),
			)

			err = core.Run(cmd.Context(), cfg, cmd.OutOrStdout(), logger, "codexplain/"+BUILD_VERSION)
			if core.IsInputError(err) {
				// Already reported to the user; no explanation is printed.
				return nil
			}
			return err
		},
	}

	rootCmd.Flags().StringP("text", "t", "", "Code text to explain")
	rootCmd.Flags().StringP("file", "f", "", "File containing code to explain")
	rootCmd.MarkFlagsMutuallyExclusive("text", "file")
	rootCmd.MarkFlagsOneRequired("text", "file")

	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	return rootCmd
}

// newCompressedSink creates a new compressed sink from a URL.
// The URL path should point to the log file location.
// Implements proper zstd frame continuation by checking if the existing file
// contains valid zstd frames and appending new frames appropriately.
func newCompressedSink(u *url.URL) (zap.Sink, error) {
	filePath := u.Path

	flags := os.O_CREATE | os.O_WRONLY

	fileInfo, err := os.Stat(filePath)
	if err == nil && fileInfo.Size() > 0 {
		if isValidZstdFile(filePath) {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
	}

	file, err := os.OpenFile(filePath, flags, 0644)
	if err != nil {
		return nil, err
	}

	encoder, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	return &compressedSink{
		file:    file,
		encoder: encoder,
	}, nil
}

// isValidZstdFile checks if a file starts with a valid zstd magic number.
func isValidZstdFile(filePath string) bool {
	file, err := os.Open(filePath)
	if err != nil {
		return false
	}
	defer func() {
		_ = file.Close()
	}()

	buf := make([]byte, 4)
	n, err := file.Read(buf)
	if err != nil || n < 4 {
		return false
	}

	return buf[0] == 0x28 && buf[1] == 0xB5 && buf[2] == 0x2F && buf[3] == 0xFD
}

// compressedSink wraps a zstd encoder so zap can write compressed logs.
type compressedSink struct {
	file    *os.File
	encoder *zstd.Encoder
}

// Write returns len(p) on success to satisfy the io.Writer contract,
// regardless of how many compressed bytes were written.
func (s *compressedSink) Write(p []byte) (int, error) {
	_, err := s.encoder.Write(p)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *compressedSink) Sync() error {
	if err := s.encoder.Flush(); err != nil {
		return err
	}
	return s.file.Sync()
}

// Close always closes the file, even if closing the encoder fails.
func (s *compressedSink) Close() error {
	encErr := s.encoder.Close()
	fileErr := s.file.Close()

	if encErr != nil {
		return encErr
	}
	return fileErr
}

// logOutputPath maps the configured log file to a zap output path. Files
// ending in .zst go through the compressed sink.
func logOutputPath(logFile string) (string, error) {
	absPath, err := filepath.Abs(logFile)
	if err != nil {
		return "", err
	}
	if strings.HasSuffix(absPath, ".zst") {
		return "zstd://" + filepath.ToSlash(absPath), nil
	}
	return absPath, nil
}

// initializeLogger builds the run's logger. Without a configured log file
// nothing is logged, so a normal run writes no files.
func initializeLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.LogFile == "" {
		return zap.NewNop(), nil
	}

	logLevel, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	outputPath, err := logOutputPath(cfg.LogFile)
	if err != nil {
		return nil, err
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = logLevel
	loggerConfig.OutputPaths = []string{outputPath}
	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, err
	}

	// Runs appended to the same log file are told apart by run_id.
	return logger.With(zap.String("run_id", uuid.New().String())), nil
}
