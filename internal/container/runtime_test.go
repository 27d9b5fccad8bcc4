// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

type mockExecutor struct {
	availableBins map[string]bool
	runnableCmds  map[string]bool
	runPipedFunc  func(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) RunSilent(_ context.Context, name string, args ...string) error {
	key := name + " " + strings.Join(args, " ")
	if m.runnableCmds[key] {
		return nil
	}
	return errors.New("command failed: " + key)
}

func (m *mockExecutor) RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if m.runPipedFunc != nil {
		return m.runPipedFunc(ctx, name, args, stdin, stdout, stderr)
	}
	return nil
}

func TestDetectRuntime(t *testing.T) {
	tests := []struct {
		name     string
		exec     *mockExecutor
		wantName string
		wantErr  bool
	}{
		{
			name: "docker available",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true},
				runnableCmds:  map[string]bool{"docker info": true},
			},
			wantName: "docker",
		},
		{
			name: "podman fallback when docker missing",
			exec: &mockExecutor{
				availableBins: map[string]bool{"podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name:    "neither available",
			exec:    &mockExecutor{},
			wantErr: true,
		},
		{
			name: "docker daemon down, podman works",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := detectRuntime(context.Background(), tt.exec)
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), "no container runtime available") {
					t.Fatalf("err = %v, want no-runtime error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rt.Name() != tt.wantName {
				t.Errorf("got runtime %q, want %q", rt.Name(), tt.wantName)
			}
		})
	}
}

func TestImageExists(t *testing.T) {
	ctx := context.Background()
	exec := &mockExecutor{runnableCmds: map[string]bool{
		"docker image inspect markitdown:latest": true,
		"podman image exists markitdown:latest":  true,
	}}

	if err := newDockerRuntime(exec).ImageExists(ctx, "markitdown:latest"); err != nil {
		t.Errorf("docker: %v", err)
	}
	if err := newPodmanRuntime(exec).ImageExists(ctx, "markitdown:latest"); err != nil {
		t.Errorf("podman: %v", err)
	}

	err := newDockerRuntime(exec).ImageExists(ctx, "other:1")
	if err == nil || !strings.Contains(err.Error(), "other:1") {
		t.Errorf("missing image err = %v", err)
	}
}

func TestRunPipes(t *testing.T) {
	var gotArgs []string
	exec := &mockExecutor{
		runPipedFunc: func(_ context.Context, name string, args []string, stdin io.Reader, stdout, _ io.Writer) error {
			gotArgs = append([]string{name}, args...)
			data, _ := io.ReadAll(stdin)
			_, _ = stdout.Write([]byte("converted: " + string(data)))
			return nil
		},
	}

	var out bytes.Buffer
	err := newPodmanRuntime(exec).Run(context.Background(), "markitdown:latest", strings.NewReader("pdf bytes"), &out)
	if err != nil {
		t.Fatal(err)
	}
	if out.String() != "converted: pdf bytes" {
		t.Errorf("out = %q", out.String())
	}
	want := "podman run --rm -i --network none markitdown:latest"
	if got := strings.Join(gotArgs, " "); got != want {
		t.Errorf("command = %q, want %q", got, want)
	}
}

func TestRunFailureIncludesStderr(t *testing.T) {
	exec := &mockExecutor{
		runPipedFunc: func(_ context.Context, _ string, _ []string, _ io.Reader, _, stderr io.Writer) error {
			_, _ = stderr.Write([]byte("  unsupported format\n"))
			return errors.New("exit status 1")
		},
	}

	err := newDockerRuntime(exec).Run(context.Background(), "markitdown:latest", strings.NewReader(""), io.Discard)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "exit status 1: unsupported format") {
		t.Errorf("err = %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	exec := &mockExecutor{
		runPipedFunc: func(ctx context.Context, _ string, _ []string, _ io.Reader, _, _ io.Writer) error {
			cancel()
			return errors.New("signal: killed")
		},
	}

	err := newDockerRuntime(exec).Run(ctx, "markitdown:latest", strings.NewReader(""), io.Discard)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestLimitedBuffer(t *testing.T) {
	var b limitedBuffer
	n, err := b.Write(bytes.Repeat([]byte("x"), maxStderr+100))
	if err != nil || n != maxStderr+100 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	b.Write([]byte("more"))
	if len(b.String()) != maxStderr {
		t.Errorf("len = %d, want %d", len(b.String()), maxStderr)
	}
}
