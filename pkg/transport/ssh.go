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
	"os"
	"strconv"
	"time"

	"github.com/kevinburke/ssh_config"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
	"google.golang.org/grpc"

	"htcluster/pkg/logging"
)

// SSHTarget is a submit server whose plan port is only reachable through SSH.
type SSHTarget struct {
	User string
	// Host is a hostname or an alias from ~/.ssh/config.
	Host       string
	RemotePort int
}

// ConnectSSH opens an SSH connection to t. The caller closes the client.
func ConnectSSH(ctx context.Context, t SSHTarget) (*ssh.Client, error) {
	addr, cfg, closeAgent, err := sshClientConfig(t)
	if err != nil {
		return nil, err
	}
	defer closeAgent()

	var d net.Dialer
	raw, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to reach %s", addr)
	}
	conn, chans, reqs, err := ssh.NewClientConn(raw, addr, cfg)
	if err != nil {
		raw.Close()
		return nil, errors.Wrapf(err, "ssh handshake with %s failed", addr)
	}
	logging.Debug("SSH connection to %s@%s established", cfg.User, addr)
	return ssh.NewClient(conn, chans, reqs), nil
}

// DialThrough tunnels a gRPC connection to port on the remote loopback
// interface over sshClient. Closing the Client leaves sshClient open.
func DialThrough(sshClient *ssh.Client, port int, timeout time.Duration) (*Client, error) {
	remote := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	return Dial("passthrough:///"+remote, timeout,
		grpc.WithContextDialer(func(ctx context.Context, addr string) (net.Conn, error) {
			return sshClient.DialContext(ctx, "tcp", addr)
		}))
}

func sshClientConfig(t SSHTarget) (string, *ssh.ClientConfig, func(), error) {
	noop := func() {}
	host := ssh_config.Get(t.Host, "HostName")
	if host == "" {
		host = t.Host
	}
	addr := net.JoinHostPort(host, ssh_config.Get(t.Host, "Port"))
	user := t.User
	if user == "" {
		user = ssh_config.Get(t.Host, "User")
	}

	knownHostsPath, err := homedir.Expand("~/.ssh/known_hosts")
	if err != nil {
		return "", nil, noop, err
	}
	hostKeys, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return "", nil, noop, errors.Wrap(err, "failed to read known hosts")
	}

	var methods []ssh.AuthMethod
	closeAgent := noop
	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if ac, err := net.Dial("unix", sock); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(ac).Signers))
			closeAgent = func() { ac.Close() }
		} else {
			logging.Debug("SSH agent unavailable: %v", err)
		}
	}
	var signers []ssh.Signer
	for _, file := range ssh_config.GetAll(t.Host, "IdentityFile") {
		path, err := homedir.Expand(file)
		if err != nil {
			continue
		}
		key, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			logging.Debug("Skipping identity %s: %v", path, err)
			continue
		}
		signers = append(signers, signer)
	}
	if len(signers) > 0 {
		methods = append(methods, ssh.PublicKeys(signers...))
	}
	if len(methods) == 0 {
		closeAgent()
		return "", nil, noop, errors.Errorf("no SSH credentials available for %s", t.Host)
	}

	return addr, &ssh.ClientConfig{
		User:            user,
		Auth:            methods,
		HostKeyCallback: hostKeys,
	}, closeAgent, nil
}
