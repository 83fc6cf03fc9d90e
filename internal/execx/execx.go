// Package execx runs external executables with a controlled environment,
// working directory and timeout.
//
// The runner is the only component that spawns processes. Callers pass the
// environment explicitly; nothing from the parent process leaks into the
// child beyond a small base set (PATH, HOME, TMPDIR) that external CLIs
// need to function. Killing a process that exceeds its timeout is owned
// here; retry policy is owned by callers.
package execx

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"time"

	"github.com/cloudmasa/engine/internal/errdefs"
)

// Spec describes a single process invocation.
type Spec struct {
	// Path is the executable name or path.
	Path string
	// Args are passed as a structured argument array, never through a shell.
	Args []string
	// Dir is the working directory. Empty means the process default.
	Dir string
	// Env is the explicit environment for the child. Keys here override the
	// base set.
	Env map[string]string
	// Timeout bounds the process lifetime. Zero means no timeout.
	Timeout time.Duration
}

// Result holds the outcome of a completed process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes external processes. Implementations must be safe for
// concurrent use.
type Runner interface {
	// Run executes the process and blocks until it exits, returning the
	// buffered output. A non-zero exit is returned as an error carrying the
	// captured stderr; the Result is still populated.
	Run(ctx context.Context, spec Spec) (Result, error)

	// Stream executes the process and invokes onLine for every line of
	// combined output as it is produced. Error semantics match Run, except
	// stdout is not buffered into the Result.
	Stream(ctx context.Context, spec Spec, onLine func(string)) (Result, error)
}

// OSRunner is the production Runner backed by os/exec.
type OSRunner struct{}

// New returns a process runner backed by os/exec.
func New() *OSRunner { return &OSRunner{} }

func (r *OSRunner) Run(ctx context.Context, spec Spec) (Result, error) {
	cmd, cancel, err := r.command(ctx, spec)
	if err != nil {
		return Result{}, err
	}
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	res := Result{
		ExitCode: exitCode(cmd),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	return res, r.classify(ctx, spec, res, runErr)
}

func (r *OSRunner) Stream(ctx context.Context, spec Spec, onLine func(string)) (Result, error) {
	cmd, cancel, err := r.command(ctx, spec)
	if err != nil {
		return Result{}, err
	}
	defer cancel()

	var stderr bytes.Buffer
	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Result{}, r.classifyStart(spec, err)
	}

	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		onLine(scanner.Text())
	}
	scanErr := scanner.Err()
	if scanErr != nil {
		// Keep reading so the child is not blocked on a full pipe before Wait.
		_, _ = io.Copy(io.Discard, pipe)
	}

	runErr := cmd.Wait()
	res := Result{
		ExitCode: exitCode(cmd),
		Stderr:   stderr.String(),
	}
	if err := r.classify(ctx, spec, res, runErr); err != nil {
		return res, err
	}
	if scanErr != nil {
		return res, errdefs.ExternalTool(spec.Path, res.Stderr, fmt.Errorf("reading stdout: %w", scanErr))
	}
	return res, nil
}

func exitCode(cmd *exec.Cmd) int {
	if cmd.ProcessState == nil {
		return -1
	}
	return cmd.ProcessState.ExitCode()
}

func (r *OSRunner) command(ctx context.Context, spec Spec) (*exec.Cmd, context.CancelFunc, error) {
	if spec.Path == "" {
		return nil, nil, errdefs.Validation("executable path is required")
	}

	cancel := func() {}
	if spec.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
	}

	// #nosec G204 -- args come from the engine as a structured array, never a shell string
	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = buildEnv(spec.Env)
	cmd.WaitDelay = 10 * time.Second
	return cmd, cancel, nil
}

func (r *OSRunner) classify(ctx context.Context, spec Spec, res Result, runErr error) error {
	if runErr == nil {
		return nil
	}
	if spec.Timeout > 0 && ctx.Err() == nil {
		// The outer context survived, so a DeadlineExceeded inside cmd means
		// the per-process timeout fired and the child was killed.
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) && res.ExitCode == -1 {
			return errdefs.Timeout(spec.Path, fmt.Errorf("killed after %s", spec.Timeout))
		}
	}
	if startErr := r.classifyStart(spec, runErr); startErr != nil {
		return startErr
	}
	return errdefs.ExternalTool(spec.Path, res.Stderr, runErr)
}

func (r *OSRunner) classifyStart(spec Spec, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return errdefs.ToolNotFound(spec.Path, err)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil // exit failures are classified by the caller
	}
	return errdefs.ExternalTool(spec.Path, "", err)
}

// buildEnv composes the child environment from a minimal base set plus the
// explicit map. Deterministic ordering keeps logs and tests stable.
func buildEnv(explicit map[string]string) []string {
	merged := map[string]string{}
	for _, key := range []string{"PATH", "HOME", "TMPDIR"} {
		if v, ok := os.LookupEnv(key); ok {
			merged[key] = v
		}
	}
	for k, v := range explicit {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+merged[k])
	}
	return env
}
