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

// Package transport moves encoded submission plans from the workstation to
// the submit server over a single gRPC method.
package transport

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
)

const (
	serviceName  = "htcluster.PlanService"
	submitMethod = "/" + serviceName + "/Submit"

	// RequestIDKey is the metadata key carrying the per-request id.
	RequestIDKey = "x-request-id"

	ackReply = "ack"
)

// Frame is the opaque payload of a request or reply.
type Frame struct {
	Data []byte
}

// frameCodec passes Frame bytes through untouched.
type frameCodec struct{}

func (frameCodec) Name() string { return "htcluster-frame" }

func (frameCodec) Marshal(v any) ([]byte, error) {
	f, ok := v.(*Frame)
	if !ok {
		return nil, fmt.Errorf("frame codec cannot marshal %T", v)
	}
	return f.Data, nil
}

func (frameCodec) Unmarshal(data []byte, v any) error {
	f, ok := v.(*Frame)
	if !ok {
		return fmt.Errorf("frame codec cannot unmarshal into %T", v)
	}
	f.Data = append([]byte(nil), data...)
	return nil
}

type planService interface {
	submit(ctx context.Context, in *Frame) (*Frame, error)
}

func submitHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Frame)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(planService).submit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: submitMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(planService).submit(ctx, req.(*Frame))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*planService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Submit", Handler: submitHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "htcluster/transport",
}
