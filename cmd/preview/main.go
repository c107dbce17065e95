// Command preview runs a preview plugin against a file through the reference
// wazero host and writes the rendered result.
//
//	preview --plugin code-highlighter.wasm main.go > main.html
//	preview --plugin image-thumbnailer.wasm --export extract_metadata photo.png
//	preview --metadata-schema
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/neon-files/preview-sdk/config"
	"github.com/neon-files/preview-sdk/host"
	"github.com/neon-files/preview-sdk/thumbnail"
)

// Exit codes.
const (
	exitOK       = 0
	exitError    = 1
	exitUsage    = 2
	exitNoRender = 3
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("preview", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a configuration file")
	printSchema := fs.Bool("metadata-schema", false, "print the JSON Schema of extract_metadata output and exit")
	config.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: preview [flags] <file>\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if *printSchema {
		schema, err := thumbnail.MetadataSchema()
		if err != nil {
			fmt.Fprintf(stderr, "preview: %v\n", err)
			return exitError
		}
		_, _ = stdout.Write(append(schema, '\n'))
		return exitOK
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}

	cfg, err := config.Load(*configPath, fs)
	if err != nil {
		fmt.Fprintf(stderr, "preview: %v\n", err)
		return exitUsage
	}

	logger, err := newLogger(cfg.LogLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "preview: %v\n", err)
		return exitUsage
	}
	defer func() { _ = logger.Sync() }()

	logger.Debug("starting preview",
		zap.String("version", version),
		zap.String("commit", commit),
	)

	res, err := render(ctx, cfg, fs.Arg(0), logger)
	if err != nil {
		logger.Error("preview failed", zap.Error(err))
		return exitError
	}

	if err := writeResult(cfg.Output, stdout, res.Data); err != nil {
		logger.Error("failed to write result", zap.Error(err))
		return exitError
	}

	if res.Failed() {
		logger.Warn("plugin produced no preview", zap.String("mime", res.MIMEType))
		return exitNoRender
	}
	logger.Info("preview rendered",
		zap.String("mime", res.MIMEType),
		zap.Int("size", len(res.Data)),
	)
	return exitOK
}

func render(ctx context.Context, cfg *config.Config, path string, logger *zap.Logger) (*host.Result, error) {
	input, err := readInput(path, cfg.MaxFileSize)
	if err != nil {
		return nil, err
	}

	wasmBytes, err := os.ReadFile(cfg.Plugin)
	if err != nil {
		return nil, fmt.Errorf("failed to read plugin: %w", err)
	}

	exec, err := host.NewExecutor(ctx,
		host.WithLogger(logger),
		host.WithCallTimeout(cfg.Timeout),
		host.WithMemoryLimitPages(cfg.MemoryLimitPages),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = exec.Close(ctx) }()

	name := strings.TrimSuffix(filepath.Base(cfg.Plugin), filepath.Ext(cfg.Plugin))
	plugin, err := exec.LoadPlugin(ctx, name, wasmBytes)
	if err != nil {
		return nil, err
	}
	if err := plugin.Init(ctx); err != nil {
		return nil, err
	}

	hint := cfg.Hint
	if hint == "" {
		hint = strings.TrimPrefix(filepath.Ext(path), ".")
	}

	res, err := plugin.Call(ctx, cfg.Export, input, hint)
	if err != nil {
		return nil, err
	}

	if cfg.Export == host.ExportExtractMetadata && !res.IsEmpty() {
		checkMetadata(res.Data, logger)
	}
	return res, nil
}

// checkMetadata validates extract_metadata output against its schema. A
// mismatch is logged, not fatal.
func checkMetadata(data []byte, logger *zap.Logger) {
	validator, err := thumbnail.MetadataValidator()
	if err != nil {
		logger.Warn("metadata schema unavailable", zap.Error(err))
		return
	}
	if err := validator.Validate(data); err != nil {
		logger.Warn("metadata does not match schema", zap.Error(err))
	}
}

func readInput(path string, maxSize int64) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat input: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("input %s is a directory", path)
	}
	if info.Size() > maxSize {
		return nil, fmt.Errorf("input %s is %d bytes, larger than the %d byte limit", path, info.Size(), maxSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}

func writeResult(path string, stdout io.Writer, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644) //nolint:gosec // G306: previews are not secret
}

func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(w),
		lvl,
	)
	return zap.New(core).With(zap.String("component", "preview-cli")), nil
}
