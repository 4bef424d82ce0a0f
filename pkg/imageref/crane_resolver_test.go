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

package imageref

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-containerregistry/pkg/crane"
	"github.com/google/go-containerregistry/pkg/registry"
	"github.com/google/go-containerregistry/pkg/v1/random"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		image   string
		wantErr bool
	}{
		{"ubuntu", false},
		{"ubuntu:22.04", false},
		{"ghcr.io/lab/tool:1.0", false},
		{"ghcr.io/lab/tool@sha256:" + strings.Repeat("a", 64), false},
		{"", true},
		{"bad image!", true},
		{"UPPER/case", true},
	}
	for _, tc := range tests {
		t.Run(tc.image, func(t *testing.T) {
			if err := Validate(tc.image); (err != nil) != tc.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tc.image, err, tc.wantErr)
			}
		})
	}
}

func TestPin(t *testing.T) {
	digest := "sha256:" + strings.Repeat("b", 64)
	got, err := Pin("ghcr.io/lab/tool:1.0", digest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "ghcr.io/lab/tool@" + digest; got != want {
		t.Errorf("Pin = %q, want %q", got, want)
	}
	if !IsPinned(got) {
		t.Errorf("expected %q to be pinned", got)
	}
	if IsPinned("ghcr.io/lab/tool:1.0") {
		t.Error("tagged reference reported as pinned")
	}
	if _, err := Pin("ghcr.io/lab/tool:1.0", "md5:nope"); err == nil {
		t.Error("expected error for malformed digest")
	}
}

func TestParsePlatform(t *testing.T) {
	p, err := parsePlatform(string(LinuxARM64))
	if err != nil || p.OS != "linux" || p.Architecture != "arm64" {
		t.Errorf("unexpected platform %+v, err %v", p, err)
	}
	if _, err := parsePlatform("linux"); err == nil {
		t.Error("expected error for missing architecture")
	}
}

func TestCraneResolverAgainstRegistry(t *testing.T) {
	srv := httptest.NewServer(registry.New())
	defer srv.Close()
	host := strings.TrimPrefix(srv.URL, "http://")

	img, err := random.Image(256, 1)
	if err != nil {
		t.Fatalf("random image: %v", err)
	}
	tagged := host + "/lab/tool:latest"
	if err := crane.Push(img, tagged, crane.Insecure); err != nil {
		t.Fatalf("push: %v", err)
	}
	digest, err := img.Digest()
	if err != nil {
		t.Fatalf("digest: %v", err)
	}

	r := CraneResolver{Insecure: true}
	got, err := r.Resolve(context.Background(), tagged)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if want := host + "/lab/tool@" + digest.String(); got != want {
		t.Errorf("Resolve = %q, want %q", got, want)
	}

	again, err := r.Resolve(context.Background(), got)
	if err != nil || again != got {
		t.Errorf("resolving a pinned image should be a no-op, got %q, %v", again, err)
	}
}
