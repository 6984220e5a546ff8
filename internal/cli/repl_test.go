package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"
)

type fakeExec struct {
	unlocked bool

	calls []string
	arg   string
}

func (f *fakeExec) isUnlocked() bool { return f.unlocked }
func (f *fakeExec) Setup(ctx context.Context) error {
	f.calls = append(f.calls, "setup")
	return nil
}
func (f *fakeExec) Save(ctx context.Context) error {
	f.calls = append(f.calls, "save")
	return nil
}
func (f *fakeExec) Unlock(ctx context.Context) error {
	f.calls = append(f.calls, "unlock")
	f.unlocked = true
	return nil
}
func (f *fakeExec) Reveal(ctx context.Context) error {
	f.calls = append(f.calls, "reveal")
	return nil
}
func (f *fakeExec) Status(ctx context.Context) error {
	f.calls = append(f.calls, "status")
	return nil
}
func (f *fakeExec) Funds(ctx context.Context, query string) error {
	f.calls = append(f.calls, "funds")
	f.arg = query
	return nil
}
func (f *fakeExec) Users(ctx context.Context, query string) error {
	f.calls = append(f.calls, "users")
	f.arg = query
	return nil
}
func (f *fakeExec) Table(ctx context.Context, name string) error {
	f.calls = append(f.calls, "table")
	f.arg = name
	return nil
}
func (f *fakeExec) Order(ctx context.Context) error {
	f.calls = append(f.calls, "order")
	return nil
}
func (f *fakeExec) Lock(ctx context.Context) error {
	f.calls = append(f.calls, "lock")
	f.unlocked = false
	return nil
}
func (f *fakeExec) Clear(ctx context.Context) error {
	f.calls = append(f.calls, "clear")
	return nil
}

func TestRunREPL_UnlockFlowAndCommands(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader(strings.Join([]string{
		"help",
		"unlock",
		"help",
		"funds history monographs",
		"status",
		"order",
		"lock",
		"foobar",
		"exit",
	}, "\n"))

	exec := &fakeExec{unlocked: false}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "status" }, sc)

	wantOrder := []string{"unlock", "funds", "status", "order", "lock"}
	if len(exec.calls) < len(wantOrder) {
		t.Fatalf("few calls: %+v", exec.calls)
	}
	idx := 0
	for _, c := range exec.calls {
		if idx < len(wantOrder) && c == wantOrder[idx] {
			idx++
		}
	}
	if idx != len(wantOrder) {
		t.Fatalf("commands order mismatch: got %v, want subseq %v", exec.calls, wantOrder)
	}
}

func TestRunREPL_MultiWordArgument(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader("users jane smith\nexit\n")
	exec := &fakeExec{unlocked: true}

	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(strings.NewReader("")))
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(input))

	if exec.arg != "jane smith" {
		t.Fatalf("argument not passed through: %q", exec.arg)
	}
}

func TestRunREPL_TableUsageAndQuit(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader("table\nquit\n")
	exec := &fakeExec{unlocked: true}

	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(input))

	if len(exec.calls) != 0 {
		t.Fatalf("table without argument must not dispatch: %v", exec.calls)
	}
}
