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
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"

	"htcluster/pkg/jobspec"
	"htcluster/pkg/plan"
)

func startServer(t *testing.T, h Handler) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(h)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := Dial("passthrough:///bufnet", 5*time.Second,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func testPlan(t *testing.T) *plan.SubmissionPlan {
	t.Helper()
	ps := jobspec.NewParamSet()
	ps.Add("alpha", []any{1.0, 2.5})
	ps.Add("seed", []any{int64(1), int64(2)})
	jp, err := jobspec.NewJobParams(nil, ps, nil)
	require.NoError(t, err)
	job, err := jobspec.NewClusterJob(jobspec.JobSettings{
		Name: "sweep", Memory: "2G", Disk: "1G", Cpus: 2,
		Entrypoint: "train", DockerImage: "alpine:3",
	}, jp)
	require.NoError(t, err)
	p, err := plan.Build(job, plan.Layout{ClusterDir: "analysis-results"})
	require.NoError(t, err)
	return p
}

func TestPlanExchange(t *testing.T) {
	var got *plan.SubmissionPlan
	var gotID string
	c := startServer(t, func(ctx context.Context, payload []byte) error {
		gotID = requestID(ctx)
		p, err := plan.Decode(payload)
		got = p
		return err
	})

	want := testPlan(t)
	data, err := plan.Encode(want)
	require.NoError(t, err)
	require.NoError(t, c.Send(context.Background(), data))

	require.Equal(t, want, got)
	require.Equal(t, 1.0, got.Tasks[0].Params["alpha"])
	require.Equal(t, int64(2), got.Tasks[1].Params["seed"])
	require.NotEmpty(t, gotID)
}

func TestHandlerErrorIsReturned(t *testing.T) {
	c := startServer(t, func(context.Context, []byte) error {
		return errors.New("scheduler unavailable")
	})
	err := c.Send(context.Background(), []byte("x"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "scheduler unavailable")

	// The server keeps serving after a failed request.
	err = c.Send(context.Background(), []byte("y"))
	require.Error(t, err)
}

func TestRequestsAreSerialized(t *testing.T) {
	var active, maxActive atomic.Int32
	c := startServer(t, func(context.Context, []byte) error {
		n := active.Add(1)
		if n > maxActive.Load() {
			maxActive.Store(n)
		}
		time.Sleep(10 * time.Millisecond)
		active.Add(-1)
		return nil
	})

	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func() { errs <- c.Send(context.Background(), []byte("p")) }()
	}
	for i := 0; i < 4; i++ {
		require.NoError(t, <-errs)
	}
	require.Equal(t, int32(1), maxActive.Load())
}

func TestSubmissionOutlivesClientDeadline(t *testing.T) {
	type outcome struct {
		id  string
		err error
	}
	done := make(chan outcome, 2)
	c := startServer(t, func(ctx context.Context, _ []byte) error {
		time.Sleep(150 * time.Millisecond)
		done <- outcome{id: requestID(ctx), err: ctx.Err()}
		return nil
	})

	// The second request queues behind the first and is still handled.
	errs := make(chan error, 2)
	for _, payload := range []string{"a", "b"} {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			errs <- c.Send(ctx, []byte(payload))
		}()
	}
	for i := 0; i < 2; i++ {
		require.Error(t, <-errs)
	}
	for i := 0; i < 2; i++ {
		select {
		case got := <-done:
			require.NoError(t, got.err)
			require.NotEmpty(t, got.id)
		case <-time.After(5 * time.Second):
			t.Fatal("handler did not finish")
		}
	}
}

func TestRequestIDMissing(t *testing.T) {
	require.Empty(t, requestID(context.Background()))
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDKey, "abc"))
	require.Equal(t, "abc", requestID(ctx))
}

func TestFrameCodecRejectsOtherTypes(t *testing.T) {
	_, err := frameCodec{}.Marshal("nope")
	require.Error(t, err)
	require.Error(t, frameCodec{}.Unmarshal([]byte("x"), new(string)))

	f := new(Frame)
	require.NoError(t, frameCodec{}.Unmarshal([]byte("abc"), f))
	require.Equal(t, []byte("abc"), f.Data)
}
