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

// Package condor submits job documents to an HTCondor submit server.
package condor

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"os"
	"strconv"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"htcluster/pkg/config"
	"htcluster/pkg/fetch"
	"htcluster/pkg/imageref"
	"htcluster/pkg/jobspec"
	"htcluster/pkg/logging"
	"htcluster/pkg/orchestrator"
	"htcluster/pkg/plan"
	"htcluster/pkg/provenance"
	"htcluster/pkg/shell"
	"htcluster/pkg/staging"
	"htcluster/pkg/transport"
)

// Sender delivers an encoded plan.
type Sender interface {
	Send(ctx context.Context, payload []byte) error
}

// Endpoint is a connected submit server and the place to stage files for it.
type Endpoint struct {
	Target staging.Target
	Sender Sender
	Close  func() error
}

// Connector opens an Endpoint.
type Connector func(ctx context.Context) (*Endpoint, error)

// CondorOrchestrator implements orchestrator.Orchestrator for HTCondor.
type CondorOrchestrator struct {
	cfg      *config.Config
	fs       afero.Fs
	resolver imageref.Resolver
	out      io.Writer

	remote Connector
	local  Connector
}

// NewCondorOrchestrator connects to cfg's submit server over SSH, or to a
// server on localhost in test-local mode.
func NewCondorOrchestrator(cfg *config.Config) (*CondorOrchestrator, error) {
	o := &CondorOrchestrator{
		cfg:      cfg,
		fs:       afero.NewOsFs(),
		resolver: imageref.CraneResolver{Platform: imageref.LinuxAMD64},
		out:      os.Stdout,
	}
	o.remote = o.connectRemote
	o.local = o.connectLocal
	return o, nil
}

func (o *CondorOrchestrator) connectRemote(ctx context.Context) (*Endpoint, error) {
	if err := o.cfg.ValidateRemote(); err != nil {
		return nil, err
	}
	sshClient, err := transport.ConnectSSH(ctx, transport.SSHTarget{
		User:       o.cfg.SSHRemoteUser,
		Host:       o.cfg.SSHRemoteServer,
		RemotePort: o.cfg.RemotePort,
	})
	if err != nil {
		return nil, err
	}
	client, err := transport.DialThrough(sshClient, o.cfg.RemotePort, o.cfg.RequestTimeout)
	if err != nil {
		sshClient.Close()
		return nil, err
	}
	return &Endpoint{
		Target: staging.NewSSHTarget(sshClient),
		Sender: client,
		Close: func() error {
			cerr := client.Close()
			if err := sshClient.Close(); cerr == nil {
				cerr = err
			}
			return cerr
		},
	}, nil
}

func (o *CondorOrchestrator) connectLocal(ctx context.Context) (*Endpoint, error) {
	home, err := homedir.Expand(o.cfg.RemoteHome)
	if err != nil {
		return nil, err
	}
	addr := net.JoinHostPort("localhost", strconv.Itoa(o.cfg.RemotePort))
	client, err := transport.Dial("passthrough:///"+addr, o.cfg.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return &Endpoint{
		Target: staging.NewLocalTarget(home),
		Sender: client,
		Close:  client.Close,
	}, nil
}

// SubmitJob fetches and compiles the job document, then either prints the
// plan or stages the inputs and sends the plan to the submit server.
func (o *CondorOrchestrator) SubmitJob(ctx context.Context, job orchestrator.JobDefinition) error {
	logging.Info("Starting htcluster submit workflow...")

	p, sources, err := o.Compile(ctx, job)
	if err != nil {
		return err
	}

	if job.DryRun && !job.TestLocal {
		enc := json.NewEncoder(o.out)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(p), "failed to print plan")
	}

	connect := o.remote
	if job.TestLocal {
		connect = o.local
	}
	ep, err := connect(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to connect to the submit server")
	}
	defer func() {
		if err := ep.Close(); err != nil {
			logging.Warn("Closing connection to the submit server: %v", err)
		}
	}()

	// A dry run against a local server only exercises the transport.
	if job.StageInputs && !job.DryRun {
		logging.Info("Creating job directory %s...", p.Dirs.JobDir)
		if err := staging.NewStager(ep.Target).Prepare(ctx, p, sources); err != nil {
			return errors.Wrap(err, "failed to stage job")
		}
	}

	payload, err := plan.Encode(p)
	if err != nil {
		return err
	}
	logging.Info("Sending plan for %d tasks of job %s...", p.NJobs(), p.Job.Name)
	if err := ep.Sender.Send(ctx, payload); err != nil {
		return errors.Wrap(err, "failed to send plan")
	}
	logging.Info("htcluster submit workflow completed.")
	return nil
}

// Compile turns the document into a plan. sources are the local input files
// in task order.
func (o *CondorOrchestrator) Compile(ctx context.Context, job orchestrator.JobDefinition) (*plan.SubmissionPlan, []string, error) {
	fetchDir, err := os.MkdirTemp("", "htcluster-"+shell.RandomString(6))
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create download directory")
	}
	defer os.RemoveAll(fetchDir)

	docPath, err := fetch.Document(ctx, job.DocumentPath, fetchDir)
	if err != nil {
		return nil, nil, err
	}
	cj, err := jobspec.NewLoader(o.fs).LoadFile(docPath)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "invalid job document %s", job.DocumentPath)
	}

	var revision string
	if docPath == job.DocumentPath {
		revision, err = provenance.Revision(docPath)
		if err != nil {
			logging.Warn("Could not determine revision of %s: %v", docPath, err)
		}
	}

	if job.PinImage && !imageref.IsPinned(cj.Job.DockerImage) {
		digest, err := o.resolver.Resolve(ctx, cj.Job.DockerImage)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to pin container image")
		}
		pinned, err := imageref.Pin(cj.Job.DockerImage, digest)
		if err != nil {
			return nil, nil, err
		}
		logging.Info("Pinned image %s to %s", cj.Job.DockerImage, pinned)
		cj.Job.DockerImage = pinned
	}

	p, err := plan.Build(cj, plan.Layout{
		ClusterDir:  o.cfg.ClusterDir,
		StagingRoot: o.cfg.StagingRoot,
		User:        o.cfg.SSHRemoteUser,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to build submission plan")
	}
	p.Revision = revision
	return p, cj.Params.InFiles, nil
}
