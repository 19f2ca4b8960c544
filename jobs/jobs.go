package jobs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/op/go-logging"
	"golang.org/x/sync/errgroup"

	"github.com/KitchenMishap/pudding-prefixcode/compress"
	"github.com/KitchenMishap/pudding-prefixcode/container"
	"github.com/KitchenMishap/pudding-prefixcode/graphics"
	"github.com/KitchenMishap/pudding-prefixcode/huffman"
	"github.com/KitchenMishap/pudding-prefixcode/report"
	"github.com/KitchenMishap/pudding-prefixcode/verify"
)

var log = logging.MustGetLogger("jobs")

var ErrNotUTF8 = errors.New("jobs: input is not valid UTF-8")

// Extension is appended to each input path by CompressMany.
const Extension = ".hpc"

const defaultCacheSize = 64

type Config struct {
	Format    container.Format
	Workers   int  // Parallel streams in CompressMany, 0 picks from the CPU count
	Verify    bool // Read every archive back before writing it out
	CacheSize int  // Code books kept for reuse, 0 for the default
}

// Compressor encodes streams, reusing code books for inputs with identical frequencies.
// It is safe for concurrent use.
type Compressor struct {
	cfg   Config
	cache *lru.Cache[uint64, *huffman.Codebook]
}

func NewCompressor(cfg Config) (*Compressor, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[uint64, *huffman.Codebook](size)
	if err != nil {
		return nil, err
	}
	return &Compressor{cfg: cfg, cache: cache}, nil
}

func (c *Compressor) codebook(freqs huffman.FrequencyTable) (*huffman.Codebook, error) {
	key := container.FrequencyFingerprint(freqs)
	if cb, ok := c.cache.Get(key); ok && sameFrequencies(cb.Freqs, freqs) {
		log.Debugf("code book cache hit %016x", key)
		return cb, nil
	}
	cb, err := huffman.NewCodebook(freqs)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, cb)
	return cb, nil
}

func sameFrequencies(a, b huffman.FrequencyTable) bool {
	if len(a) != len(b) {
		return false
	}
	for s, f := range a {
		if b[s] != f {
			return false
		}
	}
	return true
}

// Compress writes text as a container stream to w.
func (c *Compressor) Compress(w io.Writer, text string) (compress.CompressionStats, error) {
	symbols := huffman.SymbolsOf(text)
	cb, err := c.codebook(huffman.Frequencies(symbols))
	if err != nil {
		return compress.CompressionStats{}, err
	}
	bits, err := cb.Encode(symbols)
	if err != nil {
		return compress.CompressionStats{}, err
	}

	var buf bytes.Buffer
	if err := container.Write(&buf, cb, bits, text, container.WithFormat(c.cfg.Format)); err != nil {
		return compress.CompressionStats{}, err
	}
	if c.cfg.Verify {
		if err := verify.Must(text); err != nil {
			return compress.CompressionStats{}, err
		}
		back, err := Decompress(bytes.NewReader(buf.Bytes()))
		if err != nil {
			return compress.CompressionStats{}, fmt.Errorf("%w: %v", verify.ErrVerification, err)
		}
		if back != text {
			return compress.CompressionStats{}, fmt.Errorf("%w: archive decodes to different text", verify.ErrVerification)
		}
	}
	if _, err := buf.WriteTo(w); err != nil {
		return compress.CompressionStats{}, err
	}
	return compress.Measure(text, cb, bits), nil
}

func (c *Compressor) CompressFile(in, out string) (compress.CompressionStats, error) {
	text, err := readText(in)
	if err != nil {
		return compress.CompressionStats{}, err
	}
	var stats compress.CompressionStats
	err = writeFile(out, func(w io.Writer) error {
		var err error
		stats, err = c.Compress(w, text)
		return err
	})
	if err != nil {
		return compress.CompressionStats{}, fmt.Errorf("%s: %w", in, err)
	}
	log.Infof("%s -> %s: %d -> %d bits", in, out, stats.OriginalBits, stats.EncodedBits)
	return stats, nil
}

// Result is the outcome for one input of CompressMany.
type Result struct {
	Path   string
	Output string
	Stats  compress.CompressionStats
}

// CompressMany compresses each path to path+Extension in parallel. Streams share nothing but the
// code book cache. The first failure cancels the remaining work and is returned; results for
// inputs that finished are still filled in.
func (c *Compressor) CompressMany(ctx context.Context, paths []string) ([]Result, error) {
	startTime := time.Now()
	results := make([]Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers())
	for i, path := range paths {
		g.Go(func() error {
			// Check if another worker already failed
			if err := ctx.Err(); err != nil {
				return err
			}
			out := path + Extension
			stats, err := c.CompressFile(path, out)
			if err != nil {
				return err
			}
			// Safe without a lock because i is unique to this goroutine
			results[i] = Result{Path: path, Output: out, Stats: stats}
			return nil
		})
	}
	err := g.Wait()

	elapsed := time.Since(startTime)
	log.Infof("[%5.1f s] compressed %d streams", elapsed.Seconds(), len(paths))
	return results, err
}

func (c *Compressor) workers() int {
	if c.cfg.Workers > 0 {
		return c.cfg.Workers
	}
	numWorkers := runtime.NumCPU()
	if numWorkers > 4 {
		numWorkers -= 2 // Some spare for the OS
	}
	return numWorkers
}

// Decompress reads a container stream and returns the original text.
func Decompress(r io.Reader) (string, error) {
	archive, err := container.Read(r)
	if err != nil {
		return "", err
	}
	return archive.Decode()
}

func DecompressFile(in, out string) error {
	f, err := os.Open(in)
	if err != nil {
		return err
	}
	defer f.Close()

	text, err := Decompress(f)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	err = writeFile(out, func(w io.Writer) error {
		_, err := io.WriteString(w, text)
		return err
	})
	if err != nil {
		return err
	}
	log.Infof("%s -> %s: %d bytes", in, out, len(text))
	return nil
}

// Analyse prints the frequency table, the code table and the statistics for a text file.
// limit caps the rows of each table, 0 prints everything.
func Analyse(w io.Writer, path string, limit int) error {
	text, err := readText(path)
	if err != nil {
		return err
	}
	cb, bits, err := huffman.EncodeText(text)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if err := report.Frequencies(w, cb.Freqs, limit); err != nil {
		return err
	}
	fmt.Fprintln(w)
	if err := report.Codes(w, cb.Table, limit); err != nil {
		return err
	}
	fmt.Fprintln(w)
	if err := report.Tree(w, cb.Tree); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return report.Stats(w, compress.Measure(text, cb, bits))
}

// RenderTree writes the code tree of a text file as Graphviz DOT.
func RenderTree(in, out string) error {
	text, err := readText(in)
	if err != nil {
		return err
	}
	cb, err := huffman.NewCodebook(huffman.FrequenciesOf(text))
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	return writeFile(out, func(w io.Writer) error {
		return graphics.WriteDOT(w, cb.Tree)
	})
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: %w", path, ErrNotUTF8)
	}
	return string(data), nil
}

// writeFile creates path, or writes to stdout for "-", and removes a partly written file on error.
func writeFile(path string, fill func(w io.Writer) error) error {
	if path == "-" {
		return fill(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
