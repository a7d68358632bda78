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

// mockExecutor records calls and returns configured responses.
type mockExecutor struct {
	availableBins map[string]bool // binary -> whether LookPath succeeds
	runnableCmds  map[string]bool // "bin arg1 arg2" -> whether RunSilent succeeds
	runPipedFunc  func(name string, args []string, stdin io.Reader, stdout io.Writer) error
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

func (m *mockExecutor) RunPiped(_ context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
	if m.runPipedFunc != nil {
		return m.runPipedFunc(name, args, stdin, stdout)
	}
	return nil
}

func (m *mockExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return nil, m.RunSilent(ctx, name, args...)
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
			name: "docker on PATH but info fails, podman works",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name: "both available, docker preferred",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"docker info": true, "podman info": true},
			},
			wantName: "docker",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := DetectRuntime(context.Background(), tt.exec)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), "no usable container runtime") {
					t.Errorf("error should say no runtime is usable, got: %v", err)
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
	tests := []struct {
		name    string
		mkRT    func(*mockExecutor) Runtime
		cmds    map[string]bool
		wantErr bool
	}{
		{
			name: "docker image exists",
			mkRT: func(e *mockExecutor) Runtime { return newRuntime(binDocker, e) },
			cmds: map[string]bool{"docker image inspect markitdown:latest": true},
		},
		{
			name:    "docker image not found",
			mkRT:    func(e *mockExecutor) Runtime { return newRuntime(binDocker, e) },
			wantErr: true,
		},
		{
			name: "podman image exists",
			mkRT: func(e *mockExecutor) Runtime { return newRuntime(binPodman, e) },
			cmds: map[string]bool{"podman image exists markitdown:latest": true},
		},
		{
			name:    "podman image not found",
			mkRT:    func(e *mockExecutor) Runtime { return newRuntime(binPodman, e) },
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := tt.mkRT(&mockExecutor{runnableCmds: tt.cmds})
			err := rt.ImageExists(context.Background(), "markitdown:latest")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), "markitdown:latest") {
					t.Errorf("error should mention image name, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRun(t *testing.T) {
	echo := func(want string) func(string, []string, io.Reader, io.Writer) error {
		return func(name string, args []string, stdin io.Reader, stdout io.Writer) error {
			if name != want {
				return errors.New("expected " + want + " binary")
			}
			if strings.Join(args, " ") != "run --rm -i markitdown:latest" {
				return errors.New("unexpected args: " + strings.Join(args, " "))
			}
			data, _ := io.ReadAll(stdin)
			_, _ = stdout.Write([]byte("converted: " + string(data)))
			return nil
		}
	}
	tests := []struct {
		name     string
		mkRT     func(*mockExecutor) Runtime
		pipeFunc func(string, []string, io.Reader, io.Writer) error
		wantOut  string
		wantErr  bool
	}{
		{
			name:     "docker run pipes stdin to stdout",
			mkRT:     func(e *mockExecutor) Runtime { return newRuntime(binDocker, e) },
			pipeFunc: echo("docker"),
			wantOut:  "converted: pdf content",
		},
		{
			name:     "podman run pipes stdin to stdout",
			mkRT:     func(e *mockExecutor) Runtime { return newRuntime(binPodman, e) },
			pipeFunc: echo("podman"),
			wantOut:  "converted: pdf content",
		},
		{
			name: "run failure returns wrapped error",
			mkRT: func(e *mockExecutor) Runtime { return newRuntime(binDocker, e) },
			pipeFunc: func(string, []string, io.Reader, io.Writer) error {
				return errors.New("container exited with code 1")
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := tt.mkRT(&mockExecutor{runPipedFunc: tt.pipeFunc})
			var out bytes.Buffer
			err := rt.Run(context.Background(), "markitdown:latest", strings.NewReader("pdf content"), &out)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := out.String(); got != tt.wantOut {
				t.Errorf("got output %q, want %q", got, tt.wantOut)
			}
		})
	}
}

func TestRequire(t *testing.T) {
	m := &mockExecutor{availableBins: map[string]bool{"ffmpeg": true}}
	if err := Require(m, "ffmpeg"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := Require(m, "ffmpeg", "ffprobe", "tesseract")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "ffprobe, tesseract") {
		t.Errorf("error should list missing programs, got: %v", err)
	}
}

func TestCommandErrorQuotesStderr(t *testing.T) {
	var stderr bytes.Buffer
	stderr.WriteString("  Invalid data found when processing input\n")
	err := commandError("ffmpeg", errors.New("exit status 1"), &stderr)
	want := "ffmpeg: exit status 1: Invalid data found when processing input"
	if err == nil || err.Error() != want {
		t.Errorf("got %v, want %q", err, want)
	}
	if commandError("ffmpeg", nil, &stderr) != nil {
		t.Error("nil error should stay nil")
	}
}

func TestOSExecutorOutput(t *testing.T) {
	if _, err := (OSExecutor{}).LookPath("echo"); err != nil {
		t.Skip("echo not on PATH")
	}
	out, err := OSExecutor{}.Output(context.Background(), "echo", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(string(out)) != "hello" {
		t.Errorf("got %q, want hello", out)
	}
}
