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

// Package imageref validates container references and pins tags to digests.
package imageref

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-containerregistry/pkg/crane"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/sirupsen/logrus"
)

// DockerPlatform is an "os/arch" pair.
type DockerPlatform string

const (
	LinuxAMD64 DockerPlatform = "linux/amd64"
	LinuxARM64 DockerPlatform = "linux/arm64"
)

// Resolver turns a possibly mutable image reference into an immutable one.
type Resolver interface {
	Resolve(ctx context.Context, image string) (string, error)
}

// Validate reports whether image parses as a container reference.
func Validate(image string) error {
	if image == "" {
		return fmt.Errorf("image reference is empty")
	}
	if _, err := name.ParseReference(image); err != nil {
		return fmt.Errorf("failed to parse image reference: %w", err)
	}
	return nil
}

// IsPinned reports whether image already names a digest.
func IsPinned(image string) bool {
	ref, err := name.ParseReference(image)
	if err != nil {
		return false
	}
	_, ok := ref.(name.Digest)
	return ok
}

// Pin replaces the tag of image with digest.
func Pin(image, digest string) (string, error) {
	ref, err := name.ParseReference(image)
	if err != nil {
		return "", fmt.Errorf("failed to parse image reference %q: %w", image, err)
	}
	pinned, err := name.NewDigest(ref.Context().Name() + "@" + digest)
	if err != nil {
		return "", fmt.Errorf("invalid digest %q for %q: %w", digest, image, err)
	}
	return pinned.String(), nil
}

// CraneResolver looks digests up in the image's registry.
type CraneResolver struct {
	// Platform selects a single manifest from an index; empty keeps the
	// index digest.
	Platform DockerPlatform
	Insecure bool
}

// Resolve returns image@sha256:... for the current target of image's tag.
// Images that are already pinned are returned unchanged.
func (r CraneResolver) Resolve(ctx context.Context, image string) (string, error) {
	if IsPinned(image) {
		return image, nil
	}
	opts := []crane.Option{crane.WithContext(ctx)}
	if r.Platform != "" {
		platform, err := parsePlatform(string(r.Platform))
		if err != nil {
			return "", err
		}
		opts = append(opts, crane.WithPlatform(&platform))
	}
	if r.Insecure {
		opts = append(opts, crane.Insecure)
	}

	logrus.Debugf("Resolving digest for %s", image)
	digest, err := crane.Digest(image, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to resolve digest of %q: %w", image, err)
	}
	pinned, err := Pin(image, digest)
	if err != nil {
		return "", err
	}
	logrus.Infof("Pinned %s to %s", image, pinned)
	return pinned, nil
}

// parsePlatform converts "linux/amd64" into a v1.Platform.
func parsePlatform(platformStr string) (v1.Platform, error) {
	parts := strings.Split(platformStr, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return v1.Platform{}, fmt.Errorf("invalid platform format: %q, expected \"os/arch\"", platformStr)
	}
	return v1.Platform{
		OS:           parts[0],
		Architecture: parts[1],
	}, nil
}
