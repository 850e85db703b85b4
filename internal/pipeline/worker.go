package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/JakeStanger/rust-bindocs/internal/render"
	"github.com/JakeStanger/rust-bindocs/internal/replacer"
)

// Worker renders one template at a time. Workers share the lookup, which
// is read-only once resolution has finished.
type Worker struct {
	lookup replacer.Lookup
	style  render.TypeStyle
	stats  *RenderStats
	log    *slog.Logger
}

func NewWorker(lookup replacer.Lookup, style render.TypeStyle, stats *RenderStats, log *slog.Logger) *Worker {
	return &Worker{
		lookup: lookup,
		style:  style,
		stats:  stats,
		log:    log,
	}
}

// Process renders the job's template and writes the output file.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "source", job.Source)
	start := time.Now()

	fail := func(phase string, err error) {
		log.Error("render job failed", "phase", phase, "error", err)
		job.AddError(fmt.Sprintf("%s: %s", phase, err))
		job.SetStatus(StatusFailed, phase)
	}

	if err := ctx.Err(); err != nil {
		fail("queued", err)
		return
	}

	job.SetStatus(StatusRendering, "rendering")
	input, err := os.ReadFile(job.Source)
	if err != nil {
		fail("reading", err)
		return
	}

	doc := render.New(job.Format)
	rp := replacer.New(doc, w.lookup, w.style, log)
	if err := rp.Replace(string(input)); err != nil {
		fail("rendering", err)
		return
	}
	job.SetDirectives(rp.Stats())

	job.SetStatus(StatusWriting, "writing")
	log.Info("rendering file", "output", job.Output)
	if err := writeDocument(job.Output, doc); err != nil {
		fail("writing", err)
		return
	}

	elapsed := time.Since(start)
	if w.stats != nil {
		w.stats.Record(elapsed)
	}
	log.Debug("render job complete", "elapsed", elapsed, "unresolved", rp.Stats().Unresolved)
	job.SetStatus(StatusCompleted, "done")
}

func writeDocument(path string, doc render.Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := doc.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
