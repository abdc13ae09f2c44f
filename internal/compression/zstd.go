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
	"io"

	"connectrpc.com/connect"
	"github.com/klauspost/compress/zstd"
)

// ZstdName is the identifier of Zstandard in Connect
const ZstdName = "zstd"

// WithZstd registers Zstandard for Connect clients and handlers
func WithZstd() connect.Option {
	return newOption(ZstdName,
		func() connect.Decompressor { return new(zstdDecompressor) },
		func() connect.Compressor { return new(zstdCompressor) })
}

// zstdCompressor creates its encoder lazily so that an encoder error
// surfaces on Write rather than on construction
type zstdCompressor struct {
	encoder *zstd.Encoder
	err     error
}

func (c *zstdCompressor) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	if c.encoder == nil {
		return 0, io.ErrClosedPipe
	}
	return c.encoder.Write(p)
}

func (c *zstdCompressor) Reset(w io.Writer) {
	if c.encoder != nil {
		c.encoder.Reset(w)
		return
	}
	c.encoder, c.err = zstd.NewWriter(w,
		zstd.WithEncoderLevel(zstd.SpeedFastest),
		zstd.WithEncoderConcurrency(1))
}

func (c *zstdCompressor) Close() error {
	if c.err != nil {
		return c.err
	}
	if c.encoder == nil {
		return nil
	}
	return c.encoder.Close()
}

// zstdDecompressor drops its decoder on Close; a decoder cannot be reused
// once closed
type zstdDecompressor struct {
	decoder *zstd.Decoder
}

func (d *zstdDecompressor) Read(p []byte) (int, error) {
	if d.decoder == nil {
		return 0, io.EOF
	}
	return d.decoder.Read(p)
}

func (d *zstdDecompressor) Reset(r io.Reader) error {
	if d.decoder == nil {
		decoder, err := zstd.NewReader(r,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderMaxMemory(64<<20))
		if err != nil {
			return err
		}
		d.decoder = decoder
		return nil
	}
	return d.decoder.Reset(r)
}

func (d *zstdDecompressor) Close() error {
	if d.decoder != nil {
		d.decoder.Close()
		d.decoder = nil
	}
	return nil
}
