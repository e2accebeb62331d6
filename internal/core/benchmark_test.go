package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/csvutf8/internal/charset"
)

// ============================================================================
// Detection Benchmarks
// ============================================================================

// BenchmarkClassify_ASCII covers the 7-bit fast path that skips chardet.
func BenchmarkClassify_ASCII(b *testing.B) {
	sample := generateTestCSV(2000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		classify(sample)
	}
}

// BenchmarkClassify_Latin1 runs the statistical detector on a full sample.
func BenchmarkClassify_Latin1(b *testing.B) {
	sample := bytes.ReplaceAll(generateTestCSV(2000), []byte("e"), []byte{0xE9})
	if len(sample) > DefaultSampleSize {
		sample = sample[:DefaultSampleSize]
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		classify(sample)
	}
}

// BenchmarkBuildCandidates covers the placement rule and de-duplication.
func BenchmarkBuildCandidates(b *testing.B) {
	detections := []Detection{
		Guess{Encoding: "ascii", Confidence: 1},
		Guess{Encoding: "ISO-8859-1", Confidence: 0.73},
		Guess{Encoding: "windows-1252", Confidence: 0.95},
		NoSignal{},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, d := range detections {
			BuildCandidates(d)
		}
	}
}

// ============================================================================
// Parsing Benchmarks
// ============================================================================

// BenchmarkParseTable benchmarks parsing 1000 rows.
func BenchmarkParseTable(b *testing.B) {
	data := generateTestCSV(1000)

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ParseTable(bytes.NewReader(data)); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkParseTable_Large benchmarks parsing 100k rows.
func BenchmarkParseTable_Large(b *testing.B) {
	data := generateTestCSV(100000)

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ParseTable(bytes.NewReader(data)); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkBOMSkippingReader_LargeFile measures the wrapper's overhead.
func BenchmarkBOMSkippingReader_LargeFile(b *testing.B) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, generateTestCSV(10000)...)

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		io.Copy(io.Discard, NewBOMSkippingReader(bytes.NewReader(data)))
	}
}

// BenchmarkParseTableParallel benchmarks concurrent parsing, as the web
// server does with several conversions.
func BenchmarkParseTableParallel(b *testing.B) {
	data := generateTestCSV(1000)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			ParseTable(bytes.NewReader(data))
		}
	})
}

// ============================================================================
// Decode Benchmarks
// ============================================================================

// BenchmarkDecode compares the strict codecs on the same 10k-row input.
func BenchmarkDecode(b *testing.B) {
	data := generateTestCSV(10000)

	for _, name := range []string{"utf-7", "ascii", "utf-8", "latin1", "cp1252"} {
		codec, err := charset.Lookup(name)
		if err != nil {
			b.Fatal(err)
		}
		b.Run(name, func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			for i := 0; i < b.N; i++ {
				if _, err := codec.Decode(data); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// ============================================================================
// Resolve Benchmarks
// ============================================================================

// BenchmarkResolve_FirstCandidate is the common case: the guess works.
func BenchmarkResolve_FirstCandidate(b *testing.B) {
	path := benchFile(b, generateTestCSV(10000))
	r := Resolver{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.Try(context.Background(), path, []string{"utf-8"}); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkResolve_Fallback makes utf-7 and utf-8 fail before latin1 wins,
// reading the file three times.
func BenchmarkResolve_Fallback(b *testing.B) {
	data := bytes.ReplaceAll(generateTestCSV(10000), []byte("e"), []byte{0xE9})
	path := benchFile(b, data)
	r := Resolver{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.Try(context.Background(), path, []string{"utf-7", "utf-8", "latin1"}); err != nil {
			b.Fatal(err)
		}
	}
}

// ============================================================================
// Helpers
// ============================================================================

func benchFile(b *testing.B, data []byte) string {
	b.Helper()
	path := filepath.Join(b.TempDir(), "bench.csv")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		b.Fatal(err)
	}
	return path
}

// generateTestCSV creates a 7-bit CSV with a header and rows data rows.
func generateTestCSV(rows int) []byte {
	var buf bytes.Buffer
	buf.WriteString("id,name,email,amount,date,notes\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&buf, "%d,Customer %d,customer%d@example.com,%d.%02d,2024-01-%02d,\"Some notes, with a comma\"\n",
			i, i, i, i*10, i%100, i%28+1)
	}
	return buf.Bytes()
}
