// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package compression

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, compressor connect.Compressor, decompressor connect.Decompressor, payload string) {
	t.Helper()
	var compressed bytes.Buffer
	compressor.Reset(&compressed)
	n, err := compressor.Write([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	require.NoError(t, compressor.Close())
	assert.Less(t, compressed.Len(), len(payload))

	require.NoError(t, decompressor.Reset(&compressed))
	actual, err := io.ReadAll(decompressor)
	require.NoError(t, err)
	assert.Equal(t, payload, string(actual))
	require.NoError(t, decompressor.Close())
}

func TestCompression(t *testing.T) {
	payload := strings.Repeat("cpu=42.5 activations=12 overloaded=false ", 64)

	t.Run("With zstd reused across streams", func(t *testing.T) {
		compressor := new(zstdCompressor)
		decompressor := new(zstdDecompressor)
		for range 3 {
			roundTrip(t, compressor, decompressor, payload)
		}
	})
	t.Run("With brotli reused across streams", func(t *testing.T) {
		for _, level := range []int{BrotliBestSpeed, BrotliDefaultCompression, BrotliBestCompression} {
			pool := brotliWriterPool(level)
			compressor := &brotliCompressor{pool: pool}
			decompressor := new(brotliDecompressor)
			for range 3 {
				roundTrip(t, compressor, decompressor, payload)
			}
		}
	})
	t.Run("With closed streams", func(t *testing.T) {
		compressor := new(zstdCompressor)
		_, err := compressor.Write([]byte("x"))
		assert.ErrorIs(t, err, io.ErrClosedPipe)
		assert.NoError(t, compressor.Close())

		decompressor := new(zstdDecompressor)
		_, err = decompressor.Read(make([]byte, 1))
		assert.ErrorIs(t, err, io.EOF)

		brotliCompressor := &brotliCompressor{pool: brotliWriterPool(BrotliBestSpeed)}
		assert.NoError(t, brotliCompressor.Close())
		_, err = brotliCompressor.Write([]byte("x"))
		assert.ErrorIs(t, err, io.ErrClosedPipe)
	})
	t.Run("With options", func(t *testing.T) {
		assert.NotNil(t, WithZstd())
		assert.NotNil(t, WithBrotli(BrotliDefaultCompression))
		assert.Same(t, brotliWriterPool(3), brotliWriterPool(3))
	})
}
