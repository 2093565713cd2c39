// Package config loads, merges, and validates CLI configuration from
// defaults, an optional config file, environment variables, and flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/samhuann/SuperEbookMachine/pkg/converter"
)

const (
	// EnvPrefix namespaces the environment variables viper reads, e.g.
	// SUPEREBOOKMACHINE_WORKERS=8.
	EnvPrefix = "SUPEREBOOKMACHINE"
	// DefaultConfigName is the config file base name searched for when no
	// --config flag is given.
	DefaultConfigName = "super-ebook-machine"
)

// flagKeys are the flag names bound onto viper keys. Flags always win over
// env, which wins over the config file, which wins over defaults.
var flagKeys = []string{
	"input", "output", "ext", "ignore", "copy", "format", "profile",
	"target", "converter", "overwrite", "flatten", "workers", "verbose",
	"report-format",
}

// LoadAndValidate loads configuration from all sources, validates the merged
// result, derives the effective values (absolute paths, normalized
// extensions, target-recommended format), and sets up the logger. Returns the
// populated Options struct ready for converter.NewEngine.
func LoadAndValidate(cfgFile, appVersion string, flags *pflag.FlagSet) (converter.Options, *slog.Logger, error) {
	var opts converter.Options
	v := viper.New()

	// Basic logger for errors raised before the verbosity level is known.
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// A .env in the working directory feeds the same variables AutomaticEnv
	// reads. Absence is not an error.
	if err := godotenv.Load(); err == nil {
		tempLogger.Debug("Loaded environment from .env file")
	}

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", DefaultConfigName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			tempLogger.Debug("No configuration file found, using defaults/env/flags")
		} else {
			used := cfgFile
			if used == "" {
				used = fmt.Sprintf("searched locations for %s.yaml", DefaultConfigName)
			}
			return opts, tempLogger, fmt.Errorf("error reading config file '%s': %w", used, err)
		}
	} else {
		opts.ConfigFilePath = v.ConfigFileUsed()
		tempLogger.Debug("Using configuration file", slog.String("path", opts.ConfigFilePath))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for _, key := range flagKeys {
		flag := flags.Lookup(key)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return opts, tempLogger, fmt.Errorf("error binding flag '--%s': %w", key, err)
		}
	}

	opts.AppVersion = appVersion
	if err := v.Unmarshal(&opts); err != nil {
		return opts, tempLogger, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Boolean flag binding through viper is unreliable when the config file
	// disagrees; explicit flags always win.
	if flags.Changed("verbose") {
		opts.Verbose, _ = flags.GetBool("verbose")
	}
	if flags.Changed("overwrite") {
		opts.Overwrite, _ = flags.GetBool("overwrite")
	}
	if flags.Changed("flatten") {
		opts.Flatten, _ = flags.GetBool("flatten")
	}
	if flags.Changed("copy") {
		opts.CopyMode, _ = flags.GetBool("copy")
	}
	opts.TuiEnabled = converter.DefaultTuiEnabled
	if noTui, err := flags.GetBool("no-tui"); err == nil && noTui {
		opts.TuiEnabled = false
	}

	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logHandler)
	opts.Logger = logHandler

	if err := validateAndDeriveOptions(&opts, logger, flags); err != nil {
		return opts, logger, err
	}

	logger.Debug("Configuration loading and validation complete",
		slog.String("configFile", opts.ConfigFilePath),
		slog.Bool("verbose", opts.Verbose),
		slog.String("logLevel", logLevel.String()),
	)
	return opts, logger, nil
}

// setDefaults establishes the default values in viper, below file/env/flags.
func setDefaults(v *viper.Viper) {
	v.SetDefault("ext", []string{".pdf"})
	v.SetDefault("ignore", []string{})
	v.SetDefault("copy", false)
	v.SetDefault("format", converter.DefaultOutputFormatName)
	v.SetDefault("profile", converter.DefaultProfile)
	v.SetDefault("target", string(converter.DefaultTarget))
	v.SetDefault("converter", "")
	v.SetDefault("overwrite", converter.DefaultOverwrite)
	v.SetDefault("flatten", converter.DefaultFlatten)
	v.SetDefault("workers", converter.DefaultConcurrency)
	v.SetDefault("verbose", converter.DefaultVerbose)
	v.SetDefault("report-format", string(converter.DefaultReportFormat))
}

func isValidEnumValue[T ~string](value T, allowed []T) bool {
	return slices.Contains(allowed, value)
}

// validateAndDeriveOptions performs semantic validation on the populated
// Options struct and calculates derived fields. Errors wrap
// converter.ErrConfigValidation.
func validateAndDeriveOptions(opts *converter.Options, logger *slog.Logger, flags *pflag.FlagSet) error {
	if opts.InputPath == "" {
		err := fmt.Errorf("%w: input path is required (-i, --input)", converter.ErrConfigValidation)
		logger.Error(err.Error(), slog.String("key", "input"))
		return err
	}
	absInput, err := filepath.Abs(opts.InputPath)
	if err != nil {
		err = fmt.Errorf("%w: cannot resolve absolute input path '%s': %w", converter.ErrConfigValidation, opts.InputPath, err)
		logger.Error(err.Error(), slog.String("key", "input"))
		return err
	}
	opts.InputPath = absInput
	if err := converter.ValidateRoot(opts.InputPath); err != nil {
		logger.Error(err.Error(), slog.String("key", "input"), slog.String("value", opts.InputPath))
		return err
	}

	if opts.OutputPath == "" {
		err := fmt.Errorf("%w: output path is required (-o, --output)", converter.ErrConfigValidation)
		logger.Error(err.Error(), slog.String("key", "output"))
		return err
	}
	absOutput, err := filepath.Abs(opts.OutputPath)
	if err != nil {
		err = fmt.Errorf("%w: cannot resolve absolute output path '%s': %w", converter.ErrConfigValidation, opts.OutputPath, err)
		logger.Error(err.Error(), slog.String("key", "output"))
		return err
	}
	opts.OutputPath = absOutput

	opts.Extensions = converter.NormalizeExtensions(opts.Extensions)
	if len(opts.Extensions) == 0 {
		err := fmt.Errorf("%w: at least one input extension must be selected (--ext)", converter.ErrConfigValidation)
		logger.Error(err.Error(), slog.String("key", "ext"))
		return err
	}

	allowedTargets := []converter.Target{converter.TargetApp, converter.TargetDevice}
	if !isValidEnumValue(opts.Target, allowedTargets) {
		err := fmt.Errorf("%w: invalid value '%s' for key 'target' (flag --target). Allowed: %v", converter.ErrConfigValidation, opts.Target, allowedTargets)
		logger.Error(err.Error(), slog.String("key", "target"), slog.String("value", string(opts.Target)))
		return err
	}

	// The device target supplies the recommended format unless the user
	// picked one explicitly.
	if !opts.CopyMode && !flags.Changed("format") && flags.Changed("target") {
		switch opts.Target {
		case converter.TargetDevice:
			opts.Format = converter.TargetDeviceFormat
		default:
			opts.Format = converter.TargetAppFormat
		}
		logger.Debug("Output format derived from target", slog.String("target", string(opts.Target)), slog.String("format", opts.Format))
	}

	if !opts.CopyMode {
		opts.Format = strings.ToLower(strings.TrimSpace(opts.Format))
		if !isValidEnumValue(opts.Format, converter.KnownOutputFormats) {
			err := fmt.Errorf("%w: invalid value '%s' for key 'format' (flag --format). Allowed: %v", converter.ErrConfigValidation, opts.Format, converter.KnownOutputFormats)
			logger.Error(err.Error(), slog.String("key", "format"), slog.String("value", opts.Format))
			return err
		}
		if !isValidEnumValue(opts.Profile, converter.KnownProfiles) {
			err := fmt.Errorf("%w: invalid value '%s' for key 'profile' (flag --profile). Allowed: %v", converter.ErrConfigValidation, opts.Profile, converter.KnownProfiles)
			logger.Error(err.Error(), slog.String("key", "profile"), slog.String("value", opts.Profile))
			return err
		}
	}

	allowedReportFormat := []converter.OutputFormat{converter.OutputFormatText, converter.OutputFormatJSON}
	if !isValidEnumValue(opts.ReportFormat, allowedReportFormat) {
		err := fmt.Errorf("%w: invalid value '%s' for key 'report-format' (flag --report-format). Allowed: %v", converter.ErrConfigValidation, opts.ReportFormat, allowedReportFormat)
		logger.Error(err.Error(), slog.String("key", "report-format"), slog.String("value", string(opts.ReportFormat)))
		return err
	}

	if opts.Concurrency < 1 || opts.Concurrency > converter.MaxConcurrency {
		err := fmt.Errorf("%w: invalid value '%d' for key 'workers' (flag --workers). Must be between 1 and %d", converter.ErrConfigValidation, opts.Concurrency, converter.MaxConcurrency)
		logger.Error(err.Error(), slog.String("key", "workers"), slog.Int("value", opts.Concurrency))
		return err
	}

	// Verbose logging and the TUI fight over the terminal; verbose wins.
	if opts.Verbose && opts.TuiEnabled {
		logger.Debug("Verbose mode enabled, TUI disabled")
		opts.TuiEnabled = false
	}

	logger.Debug("Final derived settings validated",
		slog.String("input", opts.InputPath),
		slog.String("output", opts.OutputPath),
		slog.Any("extensions", opts.Extensions),
		slog.Bool("copyMode", opts.CopyMode),
		slog.String("format", opts.Format),
		slog.String("profile", opts.Profile),
		slog.Int("workers", opts.Concurrency),
		slog.Bool("tuiEnabledEffective", opts.TuiEnabled),
	)
	return nil
}
