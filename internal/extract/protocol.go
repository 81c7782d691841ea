package extract

import (
	"bufio"
	"fmt"
	"io"

	"github.com/law-makers/extract/pkg/models"
)

// MaxKeyLength is the longest key the memcached text protocol accepts.
const MaxKeyLength = 250

// Writer emits records as memcached text protocol "set" commands.
type Writer struct {
	w *bufio.Writer
	n int64
}

// NewWriter wraps w in a buffered protocol writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriterSize(w, 64*1024)}
}

// WriteRecord writes
//
//	set <key> <flags> <exptime> <bytes>\r\n<data>\r\n
func (pw *Writer) WriteRecord(r models.Record) error {
	if err := validKey(r.Key); err != nil {
		return err
	}

	n, err := fmt.Fprintf(pw.w, "set %s %d %d %d\r\n", r.Key, r.Flags, r.Exptime, len(r.Value))
	pw.n += int64(n)
	if err != nil {
		return err
	}
	n, err = pw.w.Write(r.Value)
	pw.n += int64(n)
	if err != nil {
		return err
	}
	n, err = pw.w.WriteString("\r\n")
	pw.n += int64(n)
	return err
}

// Flush writes any buffered data to the underlying writer.
func (pw *Writer) Flush() error {
	return pw.w.Flush()
}

// BytesWritten counts bytes accepted so far, flushed or not.
func (pw *Writer) BytesWritten() int64 {
	return pw.n
}

func validKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty record key")
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("record key longer than %d bytes", MaxKeyLength)
	}
	for i := 0; i < len(key); i++ {
		if c := key[i]; c <= ' ' || c == 0x7f {
			return fmt.Errorf("record key %q contains whitespace or control characters", key)
		}
	}
	return nil
}
