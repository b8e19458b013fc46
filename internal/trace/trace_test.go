package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		err  bool
	}{
		{"off", LevelOff, false},
		{"PHASE", LevelPhase, false},
		{"detail", LevelDetail, false},
		{"debug", LevelDebug, false},
		{"loud", LevelOff, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.err {
			t.Fatalf("ParseLevel(%q) error = %v, want error %v", tt.in, err, tt.err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestShouldEmit(t *testing.T) {
	if LevelPhase.ShouldEmit(ScopeOrigin) {
		t.Error("phase level must not emit origin events")
	}
	if !LevelDetail.ShouldEmit(ScopeOrigin) {
		t.Error("detail level must emit origin events")
	}
	if LevelDetail.ShouldEmit(ScopeChunk) {
		t.Error("detail level must not emit chunk events")
	}
	if !LevelDebug.ShouldEmit(ScopeChunk) {
		t.Error("debug level must emit chunk events")
	}
	if !LevelError.ShouldEmit(ScopeDriver) || LevelError.ShouldEmit(ScopePass) {
		t.Error("error level keeps only driver events")
	}
}

func TestStreamTracerText(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatText)

	span := Begin(tr, ScopePass, "scan", 0)
	Point(tr, ScopeOrigin, "origin:include", "a.f90", "start", "2", "size", "10")
	Point(tr, ScopeChunk, "rollback", "", "bytes", "1")
	span.WithExtra("bytes", "42").End("")

	out := buf.String()
	for _, want := range []string{"→ scan", "• origin:include (a.f90) {size=10, start=2}", "← scan {bytes=42}"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "rollback") {
		t.Errorf("chunk event leaked at detail level:\n%s", out)
	}
}

func TestStreamTracerNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatNDJSON)
	Point(tr, ScopePass, "marshal", "done")

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if decoded["name"] != "marshal" || decoded["scope"] != "pass" || decoded["kind"] != "point" {
		t.Errorf("unexpected event: %v", decoded)
	}
}

func TestRingTracerWraps(t *testing.T) {
	ring := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		Point(ring, ScopeChunk, name, "")
	}
	events := ring.Snapshot()
	if len(events) != 2 || events[0].Name != "b" || events[1].Name != "c" {
		t.Fatalf("unexpected snapshot: %+v", events)
	}
	if got := ring.Dropped(); got != 1 {
		t.Fatalf("Dropped() = %d, want 1", got)
	}

	var text bytes.Buffer
	if err := ring.Dump(&text, FormatText); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if !strings.HasPrefix(text.String(), "... 1 earlier events dropped\n") {
		t.Errorf("text dump must note the dropped event:\n%s", text.String())
	}
	var nd bytes.Buffer
	if err := ring.Dump(&nd, FormatNDJSON); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if lines := strings.Count(nd.String(), "\n"); lines != 2 {
		t.Errorf("ndjson dump has %d lines, want 2", lines)
	}
}

func TestParseModeAndSinks(t *testing.T) {
	for _, name := range []string{"stream", "Ring", " both "} {
		m, err := ParseMode(name)
		if err != nil || m.String() != strings.ToLower(strings.TrimSpace(name)) {
			t.Errorf("ParseMode(%q) = %v, %v", name, m, err)
		}
	}
	if _, err := ParseMode("file"); err == nil {
		t.Error("expected error for unknown mode")
	}

	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Mode: ModeStream, Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := Ring(tr); ok {
		t.Error("stream mode must not keep a ring")
	}
	tr, err = New(Config{Level: LevelPhase, Mode: ModeRing})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := tr.(*RingTracer); !ok {
		t.Errorf("ring mode must yield the ring itself, got %T", tr)
	}
	if _, err := New(Config{Level: LevelPhase, Mode: StorageMode(9)}); err == nil {
		t.Error("expected error for unknown storage mode")
	}
	if (Config{OutputPath: "run.JSONL"}).format() != FormatNDJSON {
		t.Error(".jsonl output must select NDJSON")
	}
}

func TestNewAndContext(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("off level must yield nop tracer, got %v %v", tr, err)
	}

	var buf bytes.Buffer
	tr, err = New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := Ring(tr); !ok {
		t.Fatal("both mode must carry a ring tracer")
	}

	ctx := WithTracer(context.Background(), tr)
	if FromContext(ctx) != tr {
		t.Error("tracer not propagated through context")
	}
	if FromContext(context.Background()) != Nop {
		t.Error("missing tracer must fall back to Nop")
	}

	span := Begin(tr, ScopeDriver, "cook", 0)
	ctx = WithSpan(ctx, span)
	if CurrentSpan(ctx) != span.ID() {
		t.Error("span id not propagated")
	}
}

func TestMultiTracerFansOut(t *testing.T) {
	detail := NewRingTracer(8, LevelDetail)
	phase := NewRingTracer(8, LevelPhase)
	multi := NewMultiTracer(LevelDetail, detail, phase, nil, Nop)
	if len(multi.tracers) != 2 {
		t.Fatalf("nil and disabled tracers must be dropped, kept %d", len(multi.tracers))
	}

	Point(multi, ScopePass, "scan", "")
	Point(multi, ScopeOrigin, "origin", "")

	if got := len(detail.Snapshot()); got != 2 {
		t.Errorf("detail ring has %d events, want 2", got)
	}
	if got := len(phase.Snapshot()); got != 1 {
		t.Errorf("phase ring has %d events, want 1", got)
	}
	if err := multi.Flush(); err != nil {
		t.Errorf("Flush: %v", err)
	}
	if err := multi.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if NewMultiTracer(LevelDebug).Enabled() {
		t.Error("a MultiTracer without tracers must report disabled")
	}
}
