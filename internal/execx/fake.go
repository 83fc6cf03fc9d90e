package execx

import (
	"context"
	"strings"
	"sync"
)

// FakeRunner is a scripted Runner for tests. Responses are matched against
// the invocation rendered as "path arg1 arg2 ..." by longest prefix.
type FakeRunner struct {
	mu        sync.Mutex
	responses []fakeResponse
	// Calls records every invocation in order.
	Calls []Spec
}

type fakeResponse struct {
	prefix string
	result Result
	err    error
}

// NewFakeRunner returns an empty fake. Unmatched invocations succeed with an
// empty result, so tests only script what they assert on.
func NewFakeRunner() *FakeRunner { return &FakeRunner{} }

// On scripts a response for invocations whose rendered command starts with
// prefix.
func (f *FakeRunner) On(prefix string, result Result, err error) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, fakeResponse{prefix: prefix, result: result, err: err})
	return f
}

func (f *FakeRunner) Run(_ context.Context, spec Spec) (Result, error) {
	return f.dispatch(spec)
}

func (f *FakeRunner) Stream(_ context.Context, spec Spec, onLine func(string)) (Result, error) {
	res, err := f.dispatch(spec)
	if res.Stdout != "" && onLine != nil {
		for _, line := range strings.Split(strings.TrimRight(res.Stdout, "\n"), "\n") {
			onLine(line)
		}
		res.Stdout = ""
	}
	return res, err
}

// CommandLines renders all recorded invocations, one command per line.
func (f *FakeRunner) CommandLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		lines = append(lines, render(c))
	}
	return lines
}

func (f *FakeRunner) dispatch(spec Spec) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, spec)

	cmd := render(spec)
	best := -1
	for i, r := range f.responses {
		if strings.HasPrefix(cmd, r.prefix) && (best < 0 || len(r.prefix) > len(f.responses[best].prefix)) {
			best = i
		}
	}
	if best < 0 {
		return Result{}, nil
	}
	return f.responses[best].result, f.responses[best].err
}

func render(spec Spec) string {
	return strings.Join(append([]string{spec.Path}, spec.Args...), " ")
}
