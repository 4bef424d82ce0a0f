// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package transport

import (
	"context"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"htcluster/pkg/logging"
)

// Handler processes one received payload.
type Handler func(ctx context.Context, payload []byte) error

// Server acknowledges payloads after the handler accepts them. Requests are
// handled one at a time in arrival order, and each runs to completion
// regardless of the caller's deadline.
type Server struct {
	handler Handler
	mu      sync.Mutex
	grpc    *grpc.Server
}

func NewServer(h Handler) *Server {
	s := &Server{handler: h}
	s.grpc = grpc.NewServer(grpc.ForceServerCodec(frameCodec{}))
	s.grpc.RegisterService(&serviceDesc, s)
	return s
}

// Serve blocks until Stop is called or lis fails.
func (s *Server) Serve(lis net.Listener) error {
	logging.Info("Listening for submission plans on %s", lis.Addr())
	return s.grpc.Serve(lis)
}

// Stop waits for the in-flight request to finish.
func (s *Server) Stop() {
	s.grpc.GracefulStop()
}

func requestID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if ids := md.Get(RequestIDKey); len(ids) > 0 {
		return ids[0]
	}
	return ""
}

func (s *Server) submit(ctx context.Context, in *Frame) (*Frame, error) {
	// A plan that arrived is submitted even if the client stops waiting.
	ctx = context.WithoutCancel(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logging.WithFields(logging.Fields{"request_id": requestID(ctx), "bytes": len(in.Data)})
	log.Info("Received submission plan")
	if err := s.handler(ctx, in.Data); err != nil {
		log.WithError(err).Error("Submission failed")
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	}
	return &Frame{Data: []byte(ackReply)}, nil
}
