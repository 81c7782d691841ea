package models

// Record is one key/value pair recovered from the data file
type Record struct {
	Key     string `json:"key"`
	Flags   uint32 `json:"flags"`
	Exptime int64  `json:"exptime"`
	Value   []byte `json:"value"`
}

// Layout describes how the data file is cut into extents and blocks
type Layout struct {
	BlockSize  int `json:"block_size"`
	ExtentSize int `json:"extent_size"`
	ModCount   int `json:"mod_count"`
}

// DumpStats summarises one extraction run
type DumpStats struct {
	Extents      int   `json:"extents"`
	Blocks       int   `json:"blocks"`
	Records      int   `json:"records"`
	BytesRead    int64 `json:"bytes_read"`
	BytesWritten int64 `json:"bytes_written"`
}
