// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// maxStderr caps how much stderr is quoted in an error.
const maxStderr = 1024

// Executor runs external commands. Tests substitute a recording fake.
type Executor interface {
	LookPath(file string) (string, error)

	// RunSilent runs a command and discards its output.
	RunSilent(ctx context.Context, name string, args ...string) error

	// RunPiped runs a command with the given stdin and stdout.
	RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error

	// Output runs a command and returns its stdout.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// OSExecutor is the production Executor backed by os/exec. Failed commands
// report the tail of their stderr.
type OSExecutor struct{}

func (OSExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o OSExecutor) RunSilent(ctx context.Context, name string, args ...string) error {
	_, err := o.Output(ctx, name, args...)
	return err
}

func (OSExecutor) RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	return commandError(name, cmd.Run(), &stderr)
}

func (OSExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := commandError(name, cmd.Run(), &stderr); err != nil {
		return nil, err
	}
	return stdout.Bytes(), nil
}

func commandError(name string, err error, stderr *bytes.Buffer) error {
	if err == nil {
		return nil
	}
	msg := strings.TrimSpace(stderr.String())
	if len(msg) > maxStderr {
		msg = "..." + msg[len(msg)-maxStderr:]
	}
	if msg == "" {
		return fmt.Errorf("%s: %w", name, err)
	}
	return fmt.Errorf("%s: %w: %s", name, err, msg)
}

// Require checks that every named binary is on PATH.
func Require(exec Executor, bins ...string) error {
	var missing []string
	for _, b := range bins {
		if _, err := exec.LookPath(b); err != nil {
			missing = append(missing, b)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required programs not found on PATH: %s", strings.Join(missing, ", "))
	}
	return nil
}
