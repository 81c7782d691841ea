package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/law-makers/extract/internal/config"
	"github.com/law-makers/extract/internal/fatal"
	"github.com/law-makers/extract/pkg/models"
)

func writeInput(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.bin")
	data := bytes.Repeat([]byte{0xAB}, size)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write input: %v", err)
	}
	return path
}

// offsetDecoder emits one record per block, keyed by its offset.
var offsetDecoder = DecoderFunc(func(offset int64, block []byte, layout models.Layout) ([]models.Record, error) {
	return []models.Record{{
		Key:   fmt.Sprintf("block-%d", offset),
		Value: []byte(fmt.Sprintf("len=%d", len(block))),
	}}, nil
})

func TestDump_WalksExtentsAndBlocks(t *testing.T) {
	input := writeInput(t, 2500)
	output := filepath.Join(t.TempDir(), "dump.out")

	cfg := &config.Config{
		InputFile:  input,
		OutputFile: output,
		Overrides:  config.Overrides{BlockSize: 512, ExtentSize: 1024},
	}

	stats, err := New(Options{Decoder: offsetDecoder}).Dump(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}

	if stats.Extents != 3 {
		t.Errorf("Extents = %d, want 3", stats.Extents)
	}
	if stats.Blocks != 5 {
		t.Errorf("Blocks = %d, want 5", stats.Blocks)
	}
	if stats.Records != 5 {
		t.Errorf("Records = %d, want 5", stats.Records)
	}
	if stats.BytesRead != 2500 {
		t.Errorf("BytesRead = %d, want 2500", stats.BytesRead)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if int64(len(data)) != stats.BytesWritten {
		t.Errorf("BytesWritten = %d, file has %d", stats.BytesWritten, len(data))
	}
	if !strings.Contains(string(data), "set block-2048 0 0 7\r\nlen=452\r\n") {
		t.Errorf("output missing final partial block record:\n%s", data)
	}
	if !strings.HasPrefix(string(data), "set block-0 0 0 7\r\nlen=512\r\n") {
		t.Errorf("unexpected first record:\n%s", data)
	}
}

func TestDump_RefusesExistingOutput(t *testing.T) {
	input := writeInput(t, 10)
	output := filepath.Join(t.TempDir(), "dump.out")
	if err := os.WriteFile(output, []byte("keep me"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := New(Options{}).Dump(context.Background(), &config.Config{InputFile: input, OutputFile: output})
	if err == nil {
		t.Fatal("expected error for existing output file")
	}
	if fatal.CodeOf(err) != fatal.CodeValidation {
		t.Errorf("code = %s, want %s", fatal.CodeOf(err), fatal.CodeValidation)
	}

	data, _ := os.ReadFile(output)
	if string(data) != "keep me" {
		t.Errorf("existing output was modified: %q", data)
	}
}

func TestDump_MissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := New(Options{}).Dump(context.Background(), &config.Config{
		InputFile:  filepath.Join(dir, "nope.bin"),
		OutputFile: filepath.Join(dir, "dump.out"),
	})
	if err == nil {
		t.Fatal("expected error for missing input")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap ErrNotExist: %v", err)
	}
}

func TestDump_DecoderErrorStops(t *testing.T) {
	input := writeInput(t, 4096)
	output := filepath.Join(t.TempDir(), "dump.out")
	boom := errors.New("corrupt block")

	calls := 0
	dec := DecoderFunc(func(offset int64, block []byte, layout models.Layout) ([]models.Record, error) {
		calls++
		if offset == 1024 {
			return nil, boom
		}
		return nil, nil
	})

	_, err := New(Options{Decoder: dec}).Dump(context.Background(), &config.Config{
		InputFile:  input,
		OutputFile: output,
		Overrides:  config.Overrides{BlockSize: 512},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected decoder error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("decoder called %d times, want 3", calls)
	}
}

func TestDump_ProgressAndEmptyDecoder(t *testing.T) {
	input := writeInput(t, 8192)
	output := filepath.Join(t.TempDir(), "dump.out")
	var progress bytes.Buffer

	stats, err := New(Options{Progress: &progress}).Dump(context.Background(), &config.Config{
		InputFile:  input,
		OutputFile: output,
	})
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	if stats.Records != 0 || stats.BytesWritten != 0 {
		t.Errorf("skip decoder should produce nothing: %+v", stats)
	}
	if stats.Blocks != 2 {
		t.Errorf("Blocks = %d, want 2", stats.Blocks)
	}
	if progress.Len() == 0 {
		t.Error("expected progress output")
	}
}

func TestDump_CancelledContext(t *testing.T) {
	input := writeInput(t, 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{}).Dump(ctx, &config.Config{
		InputFile:  input,
		OutputFile: filepath.Join(t.TempDir(), "dump.out"),
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestResolveLayout(t *testing.T) {
	tests := []struct {
		name string
		in   config.Overrides
		want models.Layout
	}{
		{"defaults", config.Overrides{}, models.Layout{BlockSize: 4096, ExtentSize: 8 << 20, ModCount: 1}},
		{"all", config.Overrides{BlockSize: 512, ExtentSize: 2048, ModCount: 4}, models.Layout{BlockSize: 512, ExtentSize: 2048, ModCount: 4}},
		{"small extent", config.Overrides{ExtentSize: 1024}, models.Layout{BlockSize: 1024, ExtentSize: 1024, ModCount: 1}},
		{"huge block", config.Overrides{BlockSize: 16 << 20}, models.Layout{BlockSize: 16 << 20, ExtentSize: 16 << 20, ModCount: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveLayout(tt.in); got != tt.want {
				t.Errorf("ResolveLayout() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWriter_RejectsBadKeys(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	bad := []string{"", "has space", "tab\tkey", strings.Repeat("k", MaxKeyLength+1)}
	for _, key := range bad {
		if err := w.WriteRecord(models.Record{Key: key}); err == nil {
			t.Errorf("expected error for key %q", key)
		}
	}

	if err := w.WriteRecord(models.Record{Key: "ok", Flags: 3, Exptime: 60, Value: []byte("v")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "set ok 3 60 1\r\nv\r\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestDump_HugeExtentOnSmallInput(t *testing.T) {
	input := writeInput(t, 4096)
	output := filepath.Join(t.TempDir(), "dump.out")

	stats, err := New(Options{Decoder: offsetDecoder}).Dump(context.Background(), &config.Config{
		InputFile:  input,
		OutputFile: output,
		Overrides:  config.Overrides{ExtentSize: 1 << 42},
	})
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	if stats.Extents != 1 {
		t.Errorf("Extents = %d, want 1", stats.Extents)
	}
	if stats.Blocks != 1 {
		t.Errorf("Blocks = %d, want 1", stats.Blocks)
	}
	if stats.BytesRead != 4096 {
		t.Errorf("BytesRead = %d, want 4096", stats.BytesRead)
	}
}

func TestDump_HugeBlockOnSmallInput(t *testing.T) {
	input := writeInput(t, 100)

	stats, err := New(Options{}).Dump(context.Background(), &config.Config{
		InputFile:  input,
		OutputFile: filepath.Join(t.TempDir(), "dump.out"),
		Overrides:  config.Overrides{BlockSize: 1 << 42, ExtentSize: 1 << 42},
	})
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	if stats.Blocks != 1 || stats.BytesRead != 100 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestDump_EmptyInput(t *testing.T) {
	input := writeInput(t, 0)

	stats, err := New(Options{}).Dump(context.Background(), &config.Config{
		InputFile:  input,
		OutputFile: filepath.Join(t.TempDir(), "dump.out"),
	})
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	if stats.Extents != 0 || stats.Blocks != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestDump_ExtentNotMultipleOfBlock(t *testing.T) {
	input := writeInput(t, 2000)

	var lengths []int
	dec := DecoderFunc(func(offset int64, block []byte, layout models.Layout) ([]models.Record, error) {
		lengths = append(lengths, len(block))
		return nil, nil
	})

	stats, err := New(Options{Decoder: dec}).Dump(context.Background(), &config.Config{
		InputFile:  input,
		OutputFile: filepath.Join(t.TempDir(), "dump.out"),
		Overrides:  config.Overrides{BlockSize: 600, ExtentSize: 1000},
	})
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}

	want := []int{600, 400, 600, 400}
	if fmt.Sprint(lengths) != fmt.Sprint(want) {
		t.Errorf("block lengths = %v, want %v", lengths, want)
	}
	if stats.Extents != 2 {
		t.Errorf("Extents = %d, want 2", stats.Extents)
	}
}

func TestBufferSize(t *testing.T) {
	tests := []struct {
		name   string
		layout models.Layout
		size   int64
		want   int64
	}{
		{"block smaller than input", models.Layout{BlockSize: 4096, ExtentSize: 8 << 20}, 1 << 20, 4096},
		{"input smaller than block", models.Layout{BlockSize: 4096, ExtentSize: 8 << 20}, 100, 100},
		{"huge extent", models.Layout{BlockSize: 4096, ExtentSize: 1 << 42}, 1 << 40, 4096},
		{"huge block on huge input", models.Layout{BlockSize: 1 << 42, ExtentSize: 1 << 42}, 1 << 41, 1 << 41},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bufferSize(tt.layout, tt.size); got != tt.want {
				t.Errorf("bufferSize() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDump_RejectsBlockLargerThanBuffer(t *testing.T) {
	input := filepath.Join(t.TempDir(), "sparse.bin")
	f, err := os.Create(input)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Truncate(2 * MaxBlockBuffer); err != nil {
		f.Close()
		t.Skipf("sparse files not supported: %v", err)
	}
	f.Close()
	output := filepath.Join(t.TempDir(), "dump.out")

	_, err = New(Options{}).Dump(context.Background(), &config.Config{
		InputFile:  input,
		OutputFile: output,
		Overrides:  config.Overrides{BlockSize: 2 * MaxBlockBuffer, ExtentSize: 2 * MaxBlockBuffer},
	})
	if fatal.CodeOf(err) != fatal.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, statErr := os.Stat(output); !errors.Is(statErr, os.ErrNotExist) {
		t.Errorf("output must not be created, stat err = %v", statErr)
	}
}
