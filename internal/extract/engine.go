// internal/extract/engine.go
package extract

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"

	"github.com/law-makers/extract/internal/config"
	"github.com/law-makers/extract/internal/fatal"
	"github.com/law-makers/extract/internal/runctx"
	"github.com/law-makers/extract/pkg/models"
)

// MaxBlockBuffer bounds the read buffer, which is one block long.
const MaxBlockBuffer = 1 << 30

// Options configures an Engine
type Options struct {
	// Decoder recovers records from blocks. Nil yields no records.
	Decoder Decoder

	// Progress receives a byte progress bar. Nil disables it.
	Progress io.Writer

	// LogInterval throttles the per-extent debug log line.
	LogInterval time.Duration
}

// Engine walks a data file extent by extent and dumps every record the
// decoder recovers to the output file.
type Engine struct {
	decoder     Decoder
	progress    io.Writer
	logInterval time.Duration
}

// New creates an Engine
func New(opts Options) *Engine {
	if opts.Decoder == nil {
		opts.Decoder = skipDecoder{}
	}
	if opts.LogInterval <= 0 {
		opts.LogInterval = 2 * time.Second
	}
	return &Engine{
		decoder:     opts.Decoder,
		progress:    opts.Progress,
		logInterval: opts.LogInterval,
	}
}

// Dump reads cfg.InputFile and writes the recovered records to
// cfg.OutputFile, which must not exist yet. A partially written output is
// left in place on failure.
func (e *Engine) Dump(ctx context.Context, cfg *config.Config) (models.DumpStats, error) {
	var stats models.DumpStats
	layout := ResolveLayout(cfg.Overrides)
	logger := runctx.Logger(ctx)

	in, err := os.Open(cfg.InputFile)
	if err != nil {
		return stats, fatal.Runtime(err, "cannot open input file %q", cfg.InputFile)
	}
	defer in.Close()

	// Stat reports zero for block devices, seeking to the end does not.
	size, err := in.Seek(0, io.SeekEnd)
	if err != nil {
		return stats, fatal.Runtime(err, "cannot determine size of %q", cfg.InputFile)
	}
	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return stats, fatal.Runtime(err, "cannot rewind %q", cfg.InputFile)
	}

	bufSize := bufferSize(layout, size)
	if bufSize > MaxBlockBuffer {
		return stats, fatal.Validation("Block size %d exceeds the supported maximum of %d bytes.", layout.BlockSize, MaxBlockBuffer).
			WithDetail("block_size", layout.BlockSize).
			WithDetail("max_block_size", MaxBlockBuffer)
	}

	out, err := os.OpenFile(cfg.OutputFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return stats, fatal.Validation("The output file %q already exists.", cfg.OutputFile)
		}
		return stats, fatal.Runtime(err, "cannot create output file %q", cfg.OutputFile)
	}
	defer out.Close()

	logger.Info().
		Str("input", cfg.InputFile).
		Str("output", cfg.OutputFile).
		Int64("size", size).
		Int("block_size", layout.BlockSize).
		Int("extent_size", layout.ExtentSize).
		Int("mod_count", layout.ModCount).
		Msg("Starting extraction")

	var bar *progressbar.ProgressBar
	if e.progress != nil {
		bar = progressbar.NewOptions64(size,
			progressbar.OptionSetWriter(e.progress),
			progressbar.OptionSetDescription("extracting"),
			progressbar.OptionShowBytes(true),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}

	w := NewWriter(out)
	every := rate.Sometimes{Interval: e.logInterval}
	buf := make([]byte, bufSize)
	var offset int64

	for offset < size {
		if err := ctx.Err(); err != nil {
			return stats, fatal.Runtime(err, "extraction interrupted")
		}

		n, err := io.ReadFull(in, buf[:nextBlock(layout, offset, size)])
		if n > 0 {
			if offset%int64(layout.ExtentSize) == 0 {
				stats.Extents++
			}
			if werr := e.decodeBlock(offset, buf[:n], layout, w, &stats); werr != nil {
				return stats, werr
			}
			stats.BytesRead += int64(n)
			offset += int64(n)
			if bar != nil {
				_ = bar.Add64(int64(n))
			}
			every.Do(func() {
				logger.Debug().
					Int64("offset", offset).
					Int("extents", stats.Extents).
					Int("records", stats.Records).
					Msg("Extraction progress")
			})
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return stats, fatal.Runtime(err, "read failed at offset %d", offset)
		}
	}

	if err := w.Flush(); err != nil {
		return stats, fatal.Runtime(err, "cannot write output file %q", cfg.OutputFile)
	}
	if err := out.Sync(); err != nil {
		return stats, fatal.Runtime(err, "cannot sync output file %q", cfg.OutputFile)
	}
	stats.BytesWritten = w.BytesWritten()
	if bar != nil {
		_ = bar.Finish()
	}

	logger.Info().
		Int("extents", stats.Extents).
		Int("blocks", stats.Blocks).
		Int("records", stats.Records).
		Int64("bytes_read", stats.BytesRead).
		Int64("bytes_written", stats.BytesWritten).
		Msg("Extraction complete")

	return stats, nil
}

// nextBlock returns the length of the block starting at offset. Blocks
// restart at every extent boundary, so the last block of an extent that is
// not a multiple of the block size is short, as is the last block of the
// input.
func nextBlock(layout models.Layout, offset, size int64) int64 {
	n := int64(layout.BlockSize)
	if rest := int64(layout.ExtentSize) - offset%int64(layout.ExtentSize); rest < n {
		n = rest
	}
	if rest := size - offset; rest < n {
		n = rest
	}
	return n
}

// bufferSize is the largest read Dump issues: one block, or the whole input
// when it is smaller than a block.
func bufferSize(layout models.Layout, size int64) int64 {
	n := int64(layout.BlockSize)
	if size < n {
		n = size
	}
	return n
}

// decodeBlock hands one block to the decoder and writes what it recovers.
func (e *Engine) decodeBlock(offset int64, block []byte, layout models.Layout, w *Writer, stats *models.DumpStats) error {
	records, err := e.decoder.DecodeBlock(offset, block, layout)
	if err != nil {
		return fatal.Runtime(err, "decoding block at offset %d", offset)
	}
	stats.Blocks++

	for _, r := range records {
		if err := w.WriteRecord(r); err != nil {
			return fatal.Runtime(err, "writing record from block at offset %d", offset)
		}
		stats.Records++
	}
	return nil
}
