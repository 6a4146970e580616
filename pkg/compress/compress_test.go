package compress

import (
	"bytes"
	"strings"
	"testing"
)

func TestCompressor_RoundTrip(t *testing.T) {
	payload := []byte(strings.Repeat(`{"case":"prompt text","score":0.5,"rationale":"partial"}`, 200))

	tests := []struct {
		name      string
		algorithm Algorithm
	}{
		{"zstd", AlgorithmZSTD},
		{"gzip", AlgorithmGzip},
		{"none", AlgorithmNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCompressor(tt.algorithm, LevelDefault)

			compressed, err := c.Compress(payload)
			if err != nil {
				t.Fatalf("Compress() error = %v", err)
			}
			if tt.algorithm != AlgorithmNone && len(compressed) >= len(payload) {
				t.Errorf("compressed size %d >= original %d", len(compressed), len(payload))
			}

			decompressed, err := c.Decompress(compressed)
			if err != nil {
				t.Fatalf("Decompress() error = %v", err)
			}
			if !bytes.Equal(decompressed, payload) {
				t.Error("round trip did not preserve payload")
			}
		})
	}
}

func TestCompressor_ContentEncoding(t *testing.T) {
	tests := []struct {
		algorithm Algorithm
		expected  string
	}{
		{AlgorithmZSTD, "zstd"},
		{AlgorithmGzip, "gzip"},
		{AlgorithmNone, ""},
	}

	for _, tt := range tests {
		c := NewCompressor(tt.algorithm, LevelDefault)
		if got := c.ContentEncoding(); got != tt.expected {
			t.Errorf("ContentEncoding() = %q, want %q", got, tt.expected)
		}
	}
}

func TestCompressor_UnsupportedAlgorithm(t *testing.T) {
	c := NewCompressor(Algorithm("lzma"), LevelDefault)
	if _, err := c.Compress([]byte("data")); err == nil {
		t.Error("Compress() should fail for unsupported algorithm")
	}
}
