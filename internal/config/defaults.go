package config

// Default constants for extraction configuration
const (
	DefaultOutputFile = "memcached_dump.out"
	DefaultLogLevel   = "info"
	DefaultJSONLog    = false

	// Used by the extraction engine when no override is given.
	DefaultBlockSize  = 4096
	DefaultExtentSize = 8 * 1024 * 1024 // 8MB
	DefaultModCount   = 1
)
