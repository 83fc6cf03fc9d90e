package execx

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudmasa/engine/internal/errdefs"
)

func skipIfNoShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests use /bin/sh")
	}
}

func TestRunCapturesOutput(t *testing.T) {
	skipIfNoShell(t)
	r := New()

	res, err := r.Run(context.Background(), Spec{
		Path: "/bin/sh",
		Args: []string{"-c", "echo out; echo err >&2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
}

func TestRunNonZeroExitCarriesStderr(t *testing.T) {
	skipIfNoShell(t)
	r := New()

	res, err := r.Run(context.Background(), Spec{
		Path: "/bin/sh",
		Args: []string{"-c", "echo broken >&2; exit 3"},
	})
	require.Error(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.True(t, errdefs.IsKind(err, errdefs.KindExternalTool))

	var e *errdefs.Error
	require.ErrorAs(t, err, &e)
	assert.Contains(t, e.Stderr, "broken")
}

func TestRunMissingBinary(t *testing.T) {
	r := New()

	_, err := r.Run(context.Background(), Spec{Path: "definitely-not-a-binary-xyz"})
	require.Error(t, err)
	assert.True(t, errdefs.IsKind(err, errdefs.KindToolNotFound))
}

func TestRunTimeoutKillsProcess(t *testing.T) {
	skipIfNoShell(t)
	r := New()

	start := time.Now()
	_, err := r.Run(context.Background(), Spec{
		Path:    "/bin/sh",
		Args:    []string{"-c", "sleep 30"},
		Timeout: 100 * time.Millisecond,
	})
	require.Error(t, err)
	assert.True(t, errdefs.IsKind(err, errdefs.KindTimeout), "got kind %s", errdefs.KindOf(err))
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestRunEnvIsExplicit(t *testing.T) {
	skipIfNoShell(t)
	t.Setenv("LEAKY_SECRET", "should-not-appear")
	r := New()

	res, err := r.Run(context.Background(), Spec{
		Path: "/bin/sh",
		Args: []string{"-c", "echo cred=$AWS_ACCESS_KEY_ID leak=$LEAKY_SECRET"},
		Env:  map[string]string{"AWS_ACCESS_KEY_ID": "AKIAEXAMPLE"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cred=AKIAEXAMPLE leak=\n", res.Stdout)
}

func TestStreamEmitsLines(t *testing.T) {
	skipIfNoShell(t)
	r := New()

	var lines []string
	res, err := r.Stream(context.Background(), Spec{
		Path: "/bin/sh",
		Args: []string{"-c", "echo one; echo two"},
	}, func(line string) { lines = append(lines, line) })
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, []string{"one", "two"}, lines)
}

func TestStreamSurfacesOversizedLine(t *testing.T) {
	skipIfNoShell(t)
	r := New()

	var lines []string
	res, err := r.Stream(context.Background(), Spec{
		Path: "/bin/sh",
		Args: []string{"-c", "dd if=/dev/zero bs=1048576 count=2 2>/dev/null | tr '\\0' 'a'; echo"},
	}, func(line string) { lines = append(lines, line) })
	require.Error(t, err)
	assert.True(t, errdefs.IsKind(err, errdefs.KindExternalTool), "got kind %s", errdefs.KindOf(err))
	assert.Contains(t, err.Error(), "token too long")
	assert.Equal(t, 0, res.ExitCode)
	assert.Empty(t, lines)
}

func TestFakeRunnerPrefixDispatch(t *testing.T) {
	f := NewFakeRunner().
		On("terraform apply", Result{ExitCode: 1, Stderr: "boom"}, errdefs.ExternalTool("terraform", "boom", nil)).
		On("terraform", Result{Stdout: "ok"}, nil)

	res, err := f.Run(context.Background(), Spec{Path: "terraform", Args: []string{"init"}})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Stdout)

	_, err = f.Run(context.Background(), Spec{Path: "terraform", Args: []string{"apply", "-auto-approve"}})
	require.Error(t, err)

	assert.Equal(t, []string{
		"terraform init",
		"terraform apply -auto-approve",
	}, f.CommandLines())
}
