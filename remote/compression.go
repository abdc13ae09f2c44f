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

package remote

import (
	"connectrpc.com/connect"

	"github.com/tochemey/silo/internal/compression"
)

// Compression is the algorithm applied to the statistics payloads sent
// between nodes. Every node of the cluster must use the same one.
type Compression int

const (
	// NoCompression sends the CBOR payloads as they are
	NoCompression Compression = iota
	// ZstdCompression uses Zstandard. This is the default.
	ZstdCompression
	// BrotliCompression uses Brotli. It compresses better than Zstandard
	// at a higher CPU cost.
	BrotliCompression
)

func (c Compression) valid() bool {
	return c >= NoCompression && c <= BrotliCompression
}

// String returns the name of the algorithm on the wire
func (c Compression) String() string {
	switch c {
	case ZstdCompression:
		return compression.ZstdName
	case BrotliCompression:
		return compression.BrotliName
	default:
		return "identity"
	}
}

func (c Compression) handlerOptions() []connect.HandlerOption {
	switch c {
	case ZstdCompression:
		return []connect.HandlerOption{compression.WithZstd()}
	case BrotliCompression:
		return []connect.HandlerOption{compression.WithBrotli(compression.BrotliDefaultCompression)}
	default:
		return nil
	}
}

func (c Compression) clientOptions() []connect.ClientOption {
	switch c {
	case ZstdCompression:
		return []connect.ClientOption{compression.WithZstd(), connect.WithSendCompression(compression.ZstdName)}
	case BrotliCompression:
		return []connect.ClientOption{
			compression.WithBrotli(compression.BrotliDefaultCompression),
			connect.WithSendCompression(compression.BrotliName),
		}
	default:
		return nil
	}
}
