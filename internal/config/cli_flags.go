package config

import "github.com/spf13/cobra"

// Flag names shared between registration and Load.
const (
	FlagFile        = "file"
	FlagLogFile     = "log-file"
	FlagOutputFile  = "output-file"
	FlagHelp        = "help"
	FlagBlockSize   = "force-block-size"
	FlagExtentSize  = "force-extent-size"
	FlagModCount    = "force-mod-count"
	FlagVerbose     = "verbose"
	FlagJSONLogging = "json"
)

// RegisterFlags registers the extraction flags on the provided command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	f := cmd.Flags()
	f.SortFlags = false
	f.BoolP(FlagHelp, "h", false, "Print these usage options.")
	f.String(FlagBlockSize, "", "Specifies block size, overriding file headers")
	f.String(FlagExtentSize, "", "Specifies extent size, overriding file headers")
	f.String(FlagModCount, "", "Specifies number of slices in *this* file, overriding file headers.")
	f.StringP(FlagFile, "f", "", "Path to file or block device where part or all of the database exists.")
	f.StringP(FlagLogFile, "l", "", "File to log to. If not provided, messages will be printed to stderr.")
	f.StringP(FlagOutputFile, "o", DefaultOutputFile,
		"File to which to output text memcached protocol messages. This file must not already exist.")
	f.BoolP(FlagVerbose, "v", false, "Enable debug logging")
	f.Bool(FlagJSONLogging, false, "Write log lines as JSON")
}
