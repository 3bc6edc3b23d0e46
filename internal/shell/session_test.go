package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/sync/errgroup"

	"github.com/gupta-akshay/portfolio-v2-sub000/internal/log"
	"github.com/gupta-akshay/portfolio-v2-sub000/internal/render"
	"github.com/gupta-akshay/portfolio-v2-sub000/internal/testutil"
)

// fakeChannel records what a session writes and whether it was closed.
// Closing it also closes the optional input pipe, like a real channel.
type fakeChannel struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closes int
	in     *io.PipeReader
}

func (f *fakeChannel) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closes > 0 {
		return 0, io.ErrClosedPipe
	}
	return f.buf.Write(p)
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	f.closes++
	f.mu.Unlock()
	if f.in != nil {
		_ = f.in.Close()
	}
	return nil
}

func (f *fakeChannel) raw() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buf.String()
}

func (f *fakeChannel) text() string {
	return ansi.Strip(f.raw())
}

func (f *fakeChannel) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

const testPrompt = "ada@terminal $ "

func newTestSession(ch *fakeChannel, registry *Registry, opts Options) *Session {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return New(ch, ch, testutil.SampleResume(), registry, opts)
}

// runInput runs a session over input until EOF and returns its channel.
func runInput(t *testing.T, registry *Registry, input string) *fakeChannel {
	t.Helper()
	ch := &fakeChannel{}
	s := newTestSession(ch, registry, Options{Width: 80})
	if err := s.Run(context.Background(), strings.NewReader(input), nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return ch
}

func TestSession_WelcomeThenPrompt(t *testing.T) {
	ch := runInput(t, nil, "")
	raw := ch.raw()
	if !strings.HasPrefix(raw, render.ClearScreen) {
		t.Errorf("output does not start with a screen clear: %q", raw[:min(len(raw), 20)])
	}
	out := ch.text()
	for _, want := range []string{"Writes programs", "ada@example.com", `Type "help"`} {
		if !strings.Contains(out, want) {
			t.Errorf("welcome missing %q", want)
		}
	}
	if !strings.HasSuffix(out, testPrompt) {
		t.Errorf("output does not end with the prompt: %q", out[max(0, len(out)-40):])
	}
	if ch.closeCount() != 1 {
		t.Errorf("channel closed %d times after EOF, want 1", ch.closeCount())
	}
}

func TestSession_KnownCommandsRender(t *testing.T) {
	baseline := runInput(t, nil, "").raw()
	for _, name := range []string{"help", "summary", "skills", "experience", "education", "links", "resume", "clear"} {
		for _, typed := range []string{name, strings.ToUpper(name), "  " + name + "\t "} {
			t.Run(typed, func(t *testing.T) {
				raw := runInput(t, nil, typed+"\n").raw()
				rest := strings.TrimPrefix(raw, baseline)
				if rest == raw {
					t.Fatal("output does not start with the welcome block")
				}
				if strings.Contains(rest, "Unknown command") {
					t.Errorf("%q was not recognised", typed)
				}
				if name == "clear" {
					if !strings.Contains(rest, render.ClearScreen) {
						t.Errorf("%q did not clear the screen", typed)
					}
				} else {
					body := strings.TrimSpace(strings.TrimSuffix(ansi.Strip(rest), testPrompt))
					if len(body) <= len(strings.TrimSpace(typed)) {
						t.Errorf("%q rendered nothing beyond the echo: %q", typed, body)
					}
				}
				if strings.Count(ansi.Strip(raw), testPrompt) != 2 {
					t.Errorf("%q: want a prompt before and after the command", typed)
				}
			})
		}
	}
}

func TestSession_ExitAndQuitClose(t *testing.T) {
	for _, name := range []string{"exit", "QUIT", " exit "} {
		t.Run(name, func(t *testing.T) {
			ch := runInput(t, nil, name+"\nhelp\n")
			out := ch.text()
			if !strings.Contains(out, goodbyeMessage) {
				t.Errorf("missing goodbye message")
			}
			if strings.Count(out, testPrompt) != 1 {
				t.Errorf("prompt written after %q", name)
			}
			if strings.Contains(out, "Commands") {
				t.Errorf("input after %q was processed", name)
			}
			if ch.closeCount() != 1 {
				t.Errorf("channel closed %d times, want 1", ch.closeCount())
			}
		})
	}
}

func TestSession_UnknownCommand(t *testing.T) {
	out := runInput(t, nil, "Foo Bar\n").text()
	want := "Unknown command: `foo bar`. Type \"help\" to see options."
	if !strings.Contains(out, want) {
		t.Errorf("output missing %q:\n%s", want, out)
	}
	if strings.Count(out, testPrompt) != 2 {
		t.Errorf("session did not prompt again after an unknown command")
	}
}

func TestSession_BackspaceDispatchesEditedLine(t *testing.T) {
	ch := runInput(t, nil, "ab\x7f\n")
	out := ch.text()
	if !strings.Contains(out, "Unknown command: `a`.") {
		t.Errorf("expected command %q to be dispatched:\n%s", "a", out)
	}
	if strings.Contains(out, "`ab`") {
		t.Errorf("command %q was dispatched, want %q", "ab", "a")
	}
	if !strings.Contains(ch.raw(), eraseSequence) {
		t.Error("no erase sequence written for backspace")
	}
}

func TestSession_BackspaceOnEmptyLineWritesNothing(t *testing.T) {
	baseline := runInput(t, nil, "").raw()
	raw := runInput(t, nil, "\x7f\x7f").raw()
	if raw != baseline {
		t.Errorf("backspace on empty line wrote %q", strings.TrimPrefix(raw, baseline))
	}
}

func TestSession_InterruptCloses(t *testing.T) {
	for _, input := range []string{"\x03", "hel\x03", "help\n\x03", "\x03help\n"} {
		ch := runInput(t, nil, input)
		out := ch.text()
		if !strings.Contains(out, goodbyeMessage) {
			t.Errorf("%q: missing goodbye", input)
		}
		if strings.HasSuffix(out, testPrompt) {
			t.Errorf("%q: prompt written after interrupt", input)
		}
		if input == "\x03help\n" && strings.Contains(out, "Commands") {
			t.Errorf("%q: input after interrupt was processed", input)
		}
		if ch.closeCount() != 1 {
			t.Errorf("%q: channel closed %d times, want 1", input, ch.closeCount())
		}
	}
}

func TestSession_EchoesTypedCharacters(t *testing.T) {
	baseline := runInput(t, nil, "").raw()
	raw := runInput(t, nil, "xyz").raw()
	if got := strings.TrimPrefix(raw, baseline); got != "xyz" {
		t.Errorf("echo = %q, want %q", got, "xyz")
	}
}

func TestSession_OutputUsesCRLF(t *testing.T) {
	raw := runInput(t, nil, "resume\n").raw()
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\n' && (i == 0 || raw[i-1] != '\r') {
			t.Fatalf("bare newline at offset %d", i)
		}
	}
}

func TestSession_HelpListsAllCommands(t *testing.T) {
	out := runInput(t, nil, "help\n").text()
	for _, c := range DefaultRegistry().Commands() {
		found := false
		for _, line := range strings.Split(out, "\r\n") {
			if strings.Contains(line, c.Name) && strings.Contains(line, c.Description) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("help has no line for %q", c.Name)
		}
	}
}

func TestSession_SkillsListsLabels(t *testing.T) {
	out := runInput(t, nil, "skills\n").text()
	for _, cat := range testutil.SampleResume().Skills {
		if !strings.Contains(out, cat.Label) {
			t.Errorf("skills output missing %q", cat.Label)
		}
	}
}

func TestSession_ResizeAffectsNextRender(t *testing.T) {
	ch := &fakeChannel{}
	s := newTestSession(ch, nil, Options{Width: 80})
	s.open()

	s.feed([]byte("summary\n"))
	wide := ch.text()
	if render.MaxLineWidth(strings.ReplaceAll(wide, "\r\n", "\n")) <= 40 {
		t.Fatal("render at width 80 never exceeded 40 columns")
	}

	s.Resize(40)
	s.Resize(0) // ignored
	if s.Width() != 40 {
		t.Fatalf("Width = %d, want 40", s.Width())
	}
	start := len(ch.raw())
	s.feed([]byte("summary\n"))
	narrow := ansi.Strip(ch.raw()[start:])
	for _, line := range strings.Split(narrow, "\r\n") {
		if w := ansi.StringWidth(line); w > 40 {
			t.Errorf("line is %d cells after resize to 40: %q", w, line)
		}
	}
}

func TestSession_RunAppliesResizeEvents(t *testing.T) {
	pr, pw := io.Pipe()
	ch := &fakeChannel{in: pr}
	s := newTestSession(ch, nil, Options{Width: 100})
	resizes := make(chan int)

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), pr, resizes) }()

	resizes <- 30
	if _, err := pw.Write([]byte("skills\n")); err != nil {
		t.Fatalf("writing input: %v", err)
	}
	_ = pw.Close()
	if err := <-done; err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	out := ch.text()
	idx := strings.LastIndex(out, "skills")
	for _, line := range strings.Split(out[idx:], "\r\n") {
		if w := ansi.StringWidth(line); w > 30 {
			t.Errorf("line is %d cells after resize to 30: %q", w, line)
		}
	}
}

func TestSession_PendingResizeAppliesToNextChunk(t *testing.T) {
	// Run picks between input and resizes at random; repeat so both orders
	// are seen.
	for i := 0; i < 50; i++ {
		ch := &fakeChannel{}
		s := newTestSession(ch, nil, Options{Width: 100})
		resizes := make(chan int, 1)
		resizes <- 30

		if err := s.Run(context.Background(), strings.NewReader("skills\n"), resizes); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		out := ch.text()
		idx := strings.LastIndex(out, "skills")
		for _, line := range strings.Split(out[idx:], "\r\n") {
			if w := ansi.StringWidth(line); w > 30 {
				t.Fatalf("run %d: line is %d cells with a resize to 30 pending: %q", i, w, line)
			}
		}
	}
}

func TestSession_HandlerFailuresAreContained(t *testing.T) {
	var logBuf bytes.Buffer
	registry := NewRegistry(
		Command{"boom", "panics", func(*Session) error { panic("kaboom") }},
		Command{"fail", "returns an error", func(*Session) error { return errors.New("nope") }},
	)
	ch := &fakeChannel{}
	s := newTestSession(ch, registry, Options{Logger: log.NewLogger(&logBuf, log.Options{})})
	if err := s.Run(context.Background(), strings.NewReader("boom\nfail\n"), nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	out := ch.text()
	for _, name := range []string{"boom", "fail"} {
		if !strings.Contains(out, "Something went wrong running `"+name+"`") {
			t.Errorf("no failure line for %q", name)
		}
	}
	if strings.Count(out, testPrompt) != 3 {
		t.Errorf("session stopped prompting after a failing handler")
	}
	if strings.Contains(out, "kaboom") {
		t.Error("panic value leaked to the client")
	}

	events, err := log.ReadAll(&logBuf)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	failed := 0
	for _, e := range events {
		if e.Event == log.EventHandlerFailed {
			failed++
		}
	}
	if failed != 2 {
		t.Errorf("logged %d handler failures, want 2", failed)
	}
}

func TestSession_IdleTimeout(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	ch := &fakeChannel{in: pr}
	s := newTestSession(ch, nil, Options{IdleTimeout: 20 * time.Millisecond})

	if err := s.Run(context.Background(), pr, nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(ch.text(), idleMessage) {
		t.Error("missing idle message")
	}
	if ch.closeCount() != 1 {
		t.Errorf("channel closed %d times, want 1", ch.closeCount())
	}
}

func TestSession_InputResetsIdleTimer(t *testing.T) {
	pr, pw := io.Pipe()
	ch := &fakeChannel{in: pr}
	s := newTestSession(ch, nil, Options{IdleTimeout: 150 * time.Millisecond})

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), pr, nil) }()

	for i := 0; i < 4; i++ {
		time.Sleep(50 * time.Millisecond)
		if _, err := pw.Write([]byte("x")); err != nil {
			t.Fatalf("session closed while input was arriving: %v", err)
		}
	}
	if err := <-done; err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(ch.text(), idleMessage) {
		t.Error("missing idle message")
	}
}

func TestSession_MaxDuration(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	ch := &fakeChannel{in: pr}
	s := newTestSession(ch, nil, Options{MaxDuration: 20 * time.Millisecond})

	if err := s.Run(context.Background(), pr, nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(ch.text(), timeUpMessage) {
		t.Error("missing time limit message")
	}
}

func TestSession_ContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	ch := &fakeChannel{in: pr}
	s := newTestSession(ch, nil, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx, pr, nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(ch.text(), shutdownMessage) {
		t.Error("missing shutdown message")
	}
}

func TestSession_Exec(t *testing.T) {
	ch := &fakeChannel{}
	s := newTestSession(ch, nil, Options{Width: 80})
	if code := s.Exec("Skills"); code != 0 {
		t.Errorf("Exec(skills) = %d, want 0", code)
	}
	out := ch.text()
	if !strings.Contains(out, "Languages") {
		t.Errorf("exec output missing skills:\n%s", out)
	}
	if strings.Contains(ch.raw(), render.ClearScreen) || strings.Contains(out, testPrompt) {
		t.Error("exec wrote the interactive welcome or prompt")
	}

	ch = &fakeChannel{}
	s = newTestSession(ch, nil, Options{})
	if code := s.Exec("nope"); code != 1 {
		t.Errorf("Exec(nope) = %d, want 1", code)
	}
	if !strings.Contains(ch.text(), "Unknown command: `nope`.") {
		t.Error("exec of unknown command did not explain itself")
	}
}

func TestSession_ConcurrentSessionsAreIsolated(t *testing.T) {
	inputs := map[string]string{
		"skills":    "Difference Engine",
		"education": "Private tutoring, Mathematics",
	}
	channels := make(map[string]*fakeChannel, len(inputs))
	for cmd := range inputs {
		channels[cmd] = &fakeChannel{}
	}

	var g errgroup.Group
	registry := DefaultRegistry()
	for cmd, ch := range channels {
		s := newTestSession(ch, registry, Options{Width: 80})
		input := strings.Repeat(cmd+"\n", 5)
		g.Go(func() error {
			return s.Run(context.Background(), strings.NewReader(input), nil)
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for cmd, ch := range channels {
		out := ch.text()
		for other, marker := range inputs {
			has := strings.Contains(out, marker)
			if other == cmd && strings.Count(out, marker) != 5 {
				t.Errorf("%s session shows its own output %d times, want 5", cmd, strings.Count(out, marker))
			}
			if other != cmd && has {
				t.Errorf("%s session contains output of %s", cmd, other)
			}
		}
	}
}
