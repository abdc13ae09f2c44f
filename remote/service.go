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

// Package remote serves and calls the statistics service through which the
// nodes of a cluster push their statistics to each other. Calls run over
// HTTP/2 cleartext with Connect, payloads are CBOR.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"connectrpc.com/connect"
	"go.uber.org/atomic"

	"github.com/tochemey/silo/address"
	gerrors "github.com/tochemey/silo/errors"
	ihttp "github.com/tochemey/silo/internal/http"
	"github.com/tochemey/silo/log"
	"github.com/tochemey/silo/statistics"
)

const (
	// ServiceName is the fully qualified name of the statistics service
	ServiceName = "silo.statistics.v1.StatisticsService"
	// PushProcedure records the statistics of a node
	PushProcedure = "/" + ServiceName + "/Push"
	// RemoveProcedure forgets a node
	RemoveProcedure = "/" + ServiceName + "/Remove"
)

// PushRequest carries the statistics of a node
type PushRequest struct {
	Node       string                     `cbor:"1,keyasint"`
	Statistics *statistics.NodeStatistics `cbor:"2,keyasint"`
}

// RemoveRequest announces that a node left
type RemoveRequest struct {
	Node string `cbor:"1,keyasint"`
}

// Ack answers every call
type Ack struct{}

// Server serves the statistics service and feeds what it receives into a sink
type Server struct {
	mu       sync.Mutex
	config   *Config
	sink     statistics.Sink
	logger   log.Logger
	server   *http.Server
	listener net.Listener
	started  *atomic.Bool
}

// NewServer creates a Server publishing the received statistics into sink
func NewServer(config *Config, sink statistics.Sink) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, gerrors.NewConfigurationError(err)
	}

	if sink == nil {
		return nil, gerrors.NewConfigurationError(errors.New("statistics sink is not set"))
	}

	return &Server{
		config:  config,
		sink:    sink,
		logger:  config.Logger(),
		started: atomic.NewBool(false),
	}, nil
}

// Handler returns the routes of the statistics service
func (s *Server) Handler() http.Handler {
	opts := append([]connect.HandlerOption{connect.WithCodec(cborCodec{})}, s.config.Compression().handlerOptions()...)
	mux := http.NewServeMux()
	mux.Handle(PushProcedure, connect.NewUnaryHandler(PushProcedure, s.push, opts...))
	mux.Handle(RemoveProcedure, connect.NewUnaryHandler(RemoveProcedure, s.remove, opts...))
	return mux
}

// Start listens on the configured address
func (s *Server) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started.Load() {
		return nil
	}

	addr, err := s.config.address()
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listener = listener
	s.server = ihttp.NewServer(s.Handler(), s.config.MaxFrameSize(), s.config.IdleTimeout())
	s.started.Store(true)

	go func(server *http.Server, listener net.Listener) {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("statistics service on %s stopped: %v", listener.Addr(), err)
		}
	}(s.server, listener)

	s.logger.Infof("statistics service listening on %s", listener.Addr())
	return nil
}

// Addr returns the address the server listens on, nil before Start
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started.Swap(false) {
		return nil
	}

	err := s.server.Shutdown(ctx)
	s.server = nil
	s.listener = nil
	return err
}

func (s *Server) push(_ context.Context, request *connect.Request[PushRequest]) (*connect.Response[Ack], error) {
	node, err := address.ParseNode(request.Msg.Node)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	if request.Msg.Statistics == nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("push for %s carries no statistics", node))
	}

	s.sink.Publish(node, request.Msg.Statistics)
	return connect.NewResponse(new(Ack)), nil
}

func (s *Server) remove(_ context.Context, request *connect.Request[RemoveRequest]) (*connect.Response[Ack], error) {
	node, err := address.ParseNode(request.Msg.Node)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	s.sink.RemoveNode(node)
	return connect.NewResponse(new(Ack)), nil
}
