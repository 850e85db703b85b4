package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JakeStanger/rust-bindocs/internal/catalogue"
	"github.com/JakeStanger/rust-bindocs/internal/config"
	"github.com/JakeStanger/rust-bindocs/internal/render"
)

type mapLookup map[string]*catalogue.Declaration

func (m mapLookup) Lookup(text string) (*catalogue.Declaration, bool) {
	d, ok := m[text]
	return d, ok
}

var lookup = mapLookup{
	"Point": {
		Name: "Point",
		Kind: catalogue.KindStruct,
		Fields: []catalogue.Field{
			{Name: "x", Type: catalogue.TypeInfo{Name: "Option", Generics: []catalogue.TypeInfo{{Name: "i32"}}}},
		},
	},
}

func testConfig(workers, queue int) config.Config {
	return config.Config{
		SimplifiedTypes: true,
		WorkerCount:     workers,
		MaxQueueSize:    queue,
		JobTTL:          time.Hour,
	}
}

func runPlan(t *testing.T, o *Orchestrator, targets []Target, format render.Format) []*Job {
	t.Helper()
	jobs := o.SubmitPlan(targets, format)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Wait(ctx, jobs); err != nil {
		t.Fatalf("wait: %v", err)
	}
	return jobs
}

func TestOrchestrator_RendersPlan(t *testing.T) {
	docs := t.TempDir()
	files := map[string]string{
		"a.md":     "# A\n\n<% Point %>",
		"sub/b.md": "<% Missing %> stays",
	}
	for name, content := range files {
		path := filepath.Join(docs, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	out := t.TempDir()

	targets, err := Plan(docs, out, "", render.FormatMarkdown)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	o := NewOrchestrator(testConfig(2, 10), lookup, nil)
	o.Start(context.Background())
	defer o.Stop()

	jobs := runPlan(t, o, targets, render.FormatMarkdown)
	for _, job := range jobs {
		snap := job.Snapshot()
		if snap.Status != StatusCompleted {
			t.Errorf("expected %s completed, got %s (%v)", snap.Source, snap.Status, snap.Errors)
		}
		if o.GetJob(snap.ID) != job {
			t.Errorf("expected job %s to be retrievable", snap.ID)
		}
	}

	got, err := os.ReadFile(filepath.Join(out, "a.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(got), "> Type: `i32?`") {
		t.Errorf("expected simplified type in output, got %q", got)
	}
	got, err = os.ReadFile(filepath.Join(out, "sub", "b.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "<% Missing %> stays" {
		t.Errorf("expected unresolved directive kept, got %q", got)
	}

	if s := o.Stats(); s.Count != 2 {
		t.Errorf("expected 2 render samples, got %d", s.Count)
	}
}

func TestOrchestrator_FailureIsPerJob(t *testing.T) {
	docs := t.TempDir()
	good := filepath.Join(docs, "good.md")
	if err := os.WriteFile(good, []byte("<% Point %>"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := t.TempDir()
	targets := []Target{
		{Source: filepath.Join(docs, "missing.md"), Output: filepath.Join(out, "missing.md")},
		{Source: good, Output: filepath.Join(out, "good.md")},
	}

	o := NewOrchestrator(testConfig(1, 10), lookup, nil)
	o.Start(context.Background())
	defer o.Stop()

	jobs := runPlan(t, o, targets, render.FormatMarkdown)
	if s := jobs[0].Snapshot(); s.Status != StatusFailed || len(s.Errors) != 1 || s.Phase != "reading" {
		t.Errorf("expected missing template to fail while reading, got %+v", s)
	}
	if s := jobs[1].Snapshot(); s.Status != StatusCompleted {
		t.Errorf("expected good template to complete, got %+v", s)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	// Not started, so nothing drains the queue.
	o := NewOrchestrator(testConfig(1, 1), lookup, nil)

	first := NewJob("a.md", "a.out.md", render.FormatMarkdown)
	second := NewJob("b.md", "b.out.md", render.FormatMarkdown)
	if err := o.Submit(first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := o.Submit(second); err == nil {
		t.Fatal("expected queue full error")
	}
	if s := second.Snapshot(); s.Status != StatusFailed {
		t.Errorf("expected rejected job failed, got %s", s.Status)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}

	o.Stop()
	if s := first.Snapshot(); s.Status != StatusFailed || s.Phase != "cancelled" {
		t.Errorf("expected queued job cancelled on stop, got %+v", s)
	}
}

func TestOrchestrator_RunPlanLargerThanQueue(t *testing.T) {
	docs := t.TempDir()
	for i := range 25 {
		name := filepath.Join(docs, fmt.Sprintf("page%02d.md", i))
		if err := os.WriteFile(name, []byte("<% Point %>"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	out := t.TempDir()
	targets, err := Plan(docs, out, "", render.FormatMarkdown)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	o := NewOrchestrator(testConfig(1, 2), lookup, nil)
	o.Start(context.Background())
	defer o.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	jobs, err := o.RunPlan(ctx, targets, render.FormatMarkdown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Wait(ctx, jobs); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if len(jobs) != 25 {
		t.Fatalf("expected 25 jobs, got %d", len(jobs))
	}
	for _, job := range jobs {
		if s := job.Snapshot(); s.Status != StatusCompleted {
			t.Errorf("expected %s completed, got %s (%v)", s.Source, s.Status, s.Errors)
		}
	}
}

func TestOrchestrator_RunPlanCancelled(t *testing.T) {
	// Not started, so the second job can never be queued.
	o := NewOrchestrator(testConfig(1, 1), lookup, nil)
	targets := []Target{
		{Source: "a.md", Output: "a.out.md"},
		{Source: "b.md", Output: "b.out.md"},
		{Source: "c.md", Output: "c.out.md"},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	jobs, err := o.RunPlan(ctx, targets, render.FormatMarkdown)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	if s := jobs[0].Snapshot(); s.Status != StatusQueued {
		t.Errorf("expected first job queued, got %s", s.Status)
	}
	for _, job := range jobs[1:] {
		if s := job.Snapshot(); s.Status != StatusFailed || s.Phase != "cancelled" {
			t.Errorf("expected %s cancelled, got %+v", s.Source, s)
		}
	}

	o.Stop()
}

func TestOrchestrator_SubmitAfterStop(t *testing.T) {
	o := NewOrchestrator(testConfig(1, 4), lookup, nil)
	o.Start(context.Background())
	o.Stop()

	job := NewJob("late.md", "late.out.md", render.FormatMarkdown)
	if err := o.Submit(job); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
	if s := job.Snapshot(); s.Status != StatusFailed || s.Phase != "cancelled" {
		t.Errorf("expected late job cancelled, got %+v", s)
	}

	waited := NewJob("late2.md", "late2.out.md", render.FormatMarkdown)
	if err := o.SubmitWait(context.Background(), waited); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}

func TestOrchestrator_StopReleasesBlockedSubmit(t *testing.T) {
	// Not started, so the queue stays full.
	o := NewOrchestrator(testConfig(1, 1), lookup, nil)
	if err := o.Submit(NewJob("a.md", "a.out.md", render.FormatMarkdown)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	blocked := NewJob("b.md", "b.out.md", render.FormatMarkdown)
	result := make(chan error, 1)
	go func() { result <- o.SubmitWait(context.Background(), blocked) }()

	time.Sleep(20 * time.Millisecond)
	stopped := make(chan struct{})
	go func() {
		o.Stop()
		close(stopped)
	}()

	select {
	case err := <-result:
		if !errors.Is(err, ErrStopped) {
			t.Errorf("expected ErrStopped, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("blocked submit was not released by Stop")
	}
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
	if s := blocked.Snapshot(); s.Status != StatusFailed {
		t.Errorf("expected blocked job failed, got %s", s.Status)
	}
}

func TestOrchestrator_DOCXOutput(t *testing.T) {
	docs := t.TempDir()
	if err := os.WriteFile(filepath.Join(docs, "guide.md"), []byte("# Guide\n\n<% Point %>"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := t.TempDir()
	targets, err := Plan(docs, out, "", render.FormatDOCX)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	o := NewOrchestrator(testConfig(1, 10), lookup, nil)
	o.Start(context.Background())
	defer o.Stop()

	jobs := runPlan(t, o, targets, render.FormatDOCX)
	if s := jobs[0].Snapshot(); s.Status != StatusCompleted {
		t.Fatalf("expected completion, got %+v", s)
	}
	info, err := os.Stat(filepath.Join(out, "guide.docx"))
	if err != nil {
		t.Fatalf("expected docx output: %v", err)
	}
	if info.Size() == 0 {
		t.Error("expected non-empty docx output")
	}
}
