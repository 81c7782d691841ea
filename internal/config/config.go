package config

import (
	"strconv"

	"github.com/spf13/pflag"

	"github.com/law-makers/extract/internal/fatal"
)

// Overrides replace values the extraction engine would otherwise read from
// the file headers. Zero means not overridden.
type Overrides struct {
	BlockSize  int
	ExtentSize int
	ModCount   int
}

// Config holds the validated command-line configuration. It is built once
// and read-only afterwards.
type Config struct {
	InputFile  string
	OutputFile string

	// Empty means log to stderr.
	LogFile  string
	LogLevel string
	JSONLog  bool

	Overrides Overrides
}

// Load builds a Config from parsed flags and the positional arguments left
// over after flag parsing. Every failure is a *fatal.Error with
// CodeValidation.
func Load(flags *pflag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{
		OutputFile: DefaultOutputFile,
		LogLevel:   DefaultLogLevel,
		JSONLog:    DefaultJSONLog,
	}

	if flags != nil {
		cfg.InputFile = stringFlag(flags, FlagFile, cfg.InputFile)
		cfg.LogFile = stringFlag(flags, FlagLogFile, cfg.LogFile)
		cfg.OutputFile = stringFlag(flags, FlagOutputFile, cfg.OutputFile)

		if v, err := flags.GetBool(FlagVerbose); err == nil && v {
			cfg.LogLevel = "debug"
		}
		if v, err := flags.GetBool(FlagJSONLogging); err == nil && v {
			cfg.JSONLog = true
		}

		overrides := []struct {
			flag string
			dst  *int
			msg  string
		}{
			{FlagBlockSize, &cfg.Overrides.BlockSize, "Block size must be a positive integer."},
			{FlagExtentSize, &cfg.Overrides.ExtentSize, "Extent size must be a positive integer."},
			{FlagModCount, &cfg.Overrides.ModCount, "The mod count must be a positive integer."},
		}
		for _, o := range overrides {
			if !flags.Changed(o.flag) {
				continue
			}
			raw, _ := flags.GetString(o.flag)
			n, err := parsePositive(raw)
			if err != nil {
				return nil, fatal.Validation("%s", o.msg).
					WithDetail("field", o.flag).
					WithDetail("value", raw)
			}
			*o.dst = n
		}
	}

	if len(args) > 0 {
		return nil, fatal.Validation("Unexpected extra argument: %q", args[0])
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func stringFlag(flags *pflag.FlagSet, name, fallback string) string {
	f := flags.Lookup(name)
	if f == nil {
		return fallback
	}
	return f.Value.String()
}

// parsePositive accepts base-10 integers greater than zero and nothing else.
func parsePositive(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
