// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package containertest provides a recording container.Executor for tests.
package containertest

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// Call is one recorded command.
type Call struct {
	Name  string
	Args  []string
	Stdin []byte
}

// String renders the call as a command line.
func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Recorder records every command and answers it with Handler. A nil Handler
// succeeds with empty output. Missing lists binaries LookPath reports as
// absent. Recorder is safe for concurrent use.
type Recorder struct {
	Handler func(c Call) ([]byte, error)
	Missing map[string]bool

	mu    sync.Mutex
	calls []Call
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Named returns the recorded calls to one binary.
func (r *Recorder) Named(name string) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

func (r *Recorder) LookPath(file string) (string, error) {
	if r.Missing[file] {
		return "", errors.New("executable file not found: " + file)
	}
	return "/usr/bin/" + file, nil
}

func (r *Recorder) RunSilent(ctx context.Context, name string, args ...string) error {
	_, err := r.Output(ctx, name, args...)
	return err
}

func (r *Recorder) RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
	var in []byte
	if stdin != nil {
		var err error
		if in, err = io.ReadAll(stdin); err != nil {
			return err
		}
	}
	out, err := r.handle(ctx, Call{Name: name, Args: args, Stdin: in})
	if err != nil {
		return err
	}
	_, err = stdout.Write(out)
	return err
}

func (r *Recorder) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return r.handle(ctx, Call{Name: name, Args: args})
}

func (r *Recorder) handle(ctx context.Context, c Call) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.Args = append([]string(nil), c.Args...)
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
	if r.Handler == nil {
		return nil, nil
	}
	return r.Handler(c)
}
