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
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"htcluster/pkg/logging"
)

// Client sends payloads to a Server.
type Client struct {
	conn    *grpc.ClientConn
	timeout time.Duration
	// closers are released after conn, e.g. an SSH tunnel.
	closers []io.Closer
}

// Dial connects to target. A zero timeout disables the per-request deadline.
func Dial(target string, timeout time.Duration, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(frameCodec{})),
	}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create client for %s", target)
	}
	return &Client{conn: conn, timeout: timeout}, nil
}

// Send delivers payload and waits for the acknowledgement.
func (c *Client) Send(ctx context.Context, payload []byte) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	id := uuid.NewString()
	ctx = metadata.AppendToOutgoingContext(ctx, RequestIDKey, id)
	logging.Debug("Sending %d bytes as request %s", len(payload), id)

	reply := new(Frame)
	if err := c.conn.Invoke(ctx, submitMethod, &Frame{Data: payload}, reply); err != nil {
		return errors.Wrapf(err, "request %s failed", id)
	}
	if string(reply.Data) != ackReply {
		return fmt.Errorf("request %s: unexpected reply %q", id, reply.Data)
	}
	return nil
}

func (c *Client) Close() error {
	err := c.conn.Close()
	for _, cl := range c.closers {
		if cerr := cl.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
