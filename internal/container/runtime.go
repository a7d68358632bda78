// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container runs external programs: the command-line tools used
// for extraction, narration, and video assembly, and the docker or podman
// runtime used for containerized converters.
package container

import (
	"context"
	"fmt"
	"io"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// Runtime runs converter images such as markitdown.
type Runtime interface {
	Name() string
	Available(ctx context.Context) bool

	// ImageExists returns an error unless image is present locally.
	ImageExists(ctx context.Context, image string) error

	// Run starts a throwaway container of image with stdin and stdout attached.
	Run(ctx context.Context, image string, stdin io.Reader, stdout io.Writer) error
}

var imageCmds = map[string][]string{
	binDocker: {"image", "inspect"},
	binPodman: {"image", "exists"},
}

func newRuntime(bin string, exec Executor) *runtime {
	return &runtime{bin: bin, imageCmd: imageCmds[bin], exec: exec}
}

type runtime struct {
	bin      string
	imageCmd []string // subcommand that exits non-zero for a missing image
	exec     Executor
}

func (r *runtime) Name() string { return r.bin }

func (r *runtime) Available(ctx context.Context) bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(ctx, r.bin, "info") == nil
}

func (r *runtime) ImageExists(ctx context.Context, image string) error {
	args := append(append([]string(nil), r.imageCmd...), image)
	if err := r.exec.RunSilent(ctx, r.bin, args...); err != nil {
		return fmt.Errorf("%s has no image %s: %w", r.bin, image, err)
	}
	return nil
}

func (r *runtime) Run(ctx context.Context, image string, stdin io.Reader, stdout io.Writer) error {
	err := r.exec.RunPiped(ctx, r.bin, []string{"run", "--rm", "-i", image}, stdin, stdout)
	if err != nil {
		return fmt.Errorf("%s run %s: %w", r.bin, image, err)
	}
	return nil
}

// DetectRuntime returns the first working runtime, preferring docker over
// podman. A nil exec uses OSExecutor.
func DetectRuntime(ctx context.Context, exec Executor) (Runtime, error) {
	if exec == nil {
		exec = OSExecutor{}
	}
	for _, bin := range []string{binDocker, binPodman} {
		if rt := newRuntime(bin, exec); rt.Available(ctx) {
			return rt, nil
		}
	}
	return nil, fmt.Errorf("no usable container runtime: tried %s and %s", binDocker, binPodman)
}
