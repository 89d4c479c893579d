package middleware

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/mlens/pkg/ports"
)

// ErrCorruptEntry is returned when a cached value cannot be decompressed.
var ErrCorruptEntry = errors.New("corrupt cache entry")

// gzip streams start with these two bytes.
var gzipMagic = []byte{0x1f, 0x8b}

type compressionMiddleware struct {
	next  ports.TraceCache
	level int
}

// NewCompressionMiddleware gzips traces before they reach the wrapped cache.
// Entries written without compression are still readable.
func NewCompressionMiddleware(level int) Middleware {
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		panic(fmt.Sprintf("invalid gzip level %d", level))
	}
	return func(next ports.TraceCache) ports.TraceCache {
		return &compressionMiddleware{next: next, level: level}
	}
}

func (m *compressionMiddleware) Put(ctx context.Context, key string, data []byte) error {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, m.level)
	if err != nil {
		return err
	}
	if _, err := zw.Write(data); err != nil {
		return fmt.Errorf("failed to compress trace: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to compress trace: %w", err)
	}
	return m.next.Put(ctx, key, buf.Bytes())
}

func (m *compressionMiddleware) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := m.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, gzipMagic) {
		return data, nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptEntry, key, err)
	}
	defer zr.Close()
	plain, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptEntry, key, err)
	}
	return plain, nil
}

func (m *compressionMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

func (m *compressionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
