package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kressler/docproof/internal/document"
	"github.com/kressler/docproof/internal/export"
	"github.com/kressler/docproof/internal/logging"
)

type JobEventType string

const (
	JobEventStatus JobEventType = "status"
	JobEventResult JobEventType = "result"
)

type JobEvent struct {
	JobID string       `json:"job_id"`
	Type  JobEventType `json:"type"`

	// For status changes
	Status JobStatus `json:"status,omitempty"`
	Error  string    `json:"error,omitempty"`

	// For results
	OutputPath string `json:"output_path,omitempty"`
}

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

type Job struct {
	ID         string        `json:"id"`
	DocumentID string        `json:"document_id"`
	Format     export.Format `json:"format"`
	Status     JobStatus     `json:"status"`
	Error      string        `json:"error,omitempty"`
	OutputPath string        `json:"output_path,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	EndedAt    time.Time     `json:"ended_at"`
	Events     chan JobEvent `json:"-"`
}

// Orchestrator ties the document store, renderer and exporter together
// and tracks asynchronous export jobs.
type Orchestrator struct {
	cfg      *Config
	store    *document.Store
	renderer *document.Renderer
	exporter *export.Exporter
	logger   logging.Logger

	jobsMu     sync.Mutex
	jobs       map[string]*Job
	jobCancels map[string]context.CancelFunc
}

// NewOrchestrator ties together config, store, exporter and logger.
func NewOrchestrator(cfg *Config, store *document.Store, exporter *export.Exporter, logger logging.Logger) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewStdoutLogger("Orchestrator")
	}
	return &Orchestrator{
		cfg:      cfg,
		store:    store,
		renderer: document.NewRenderer(),
		exporter: exporter,
		logger:   logger,
	}
}

// --- document passthroughs ---

func (o *Orchestrator) CreateDocument(ctx context.Context, doc *document.Document) error {
	return o.store.Create(ctx, doc)
}

func (o *Orchestrator) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	return o.store.Get(ctx, id)
}

func (o *Orchestrator) ListDocuments(ctx context.Context) ([]document.Document, error) {
	return o.store.List(ctx)
}

func (o *Orchestrator) UpdateDocument(ctx context.Context, doc *document.Document) error {
	return o.store.Update(ctx, doc)
}

func (o *Orchestrator) DeleteDocument(ctx context.Context, id string) error {
	return o.store.Delete(ctx, id)
}

func (o *Orchestrator) ListRevisions(ctx context.Context, docID string) ([]document.Revision, error) {
	return o.store.Revisions(ctx, docID)
}

func (o *Orchestrator) RevertDocument(ctx context.Context, docID string, steps int) (*document.Document, error) {
	return o.store.Revert(ctx, docID, steps)
}

// ExportDocument renders and exports a document synchronously.
func (o *Orchestrator) ExportDocument(ctx context.Context, docID string, format export.Format) (*export.Result, error) {
	doc, err := o.store.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	pageHTML := o.renderer.Render(doc)
	return o.exporter.Export(ctx, pageHTML, format)
}

// --- jobs ---

func (o *Orchestrator) ensureJobMaps() {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if o.jobs == nil {
		o.jobs = make(map[string]*Job)
	}
	if o.jobCancels == nil {
		o.jobCancels = make(map[string]context.CancelFunc)
	}
}

func (o *Orchestrator) emitJobEvent(jobID string, ev JobEvent) {
	o.jobsMu.Lock()
	job, ok := o.jobs[jobID]
	o.jobsMu.Unlock()
	if !ok || job == nil || job.Events == nil {
		return
	}

	// Non-blocking send; drop if buffer is full.
	select {
	case job.Events <- ev:
	default:
	}
}

func (o *Orchestrator) setJob(job *Job) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	o.jobs[job.ID] = job
}

func (o *Orchestrator) setStatus(jobID string, status JobStatus, errMsg string) {
	o.jobsMu.Lock()
	if j, ok := o.jobs[jobID]; ok {
		j.Status = status
		j.Error = errMsg
	}
	o.jobsMu.Unlock()
	o.emitJobEvent(jobID, JobEvent{
		JobID:  jobID,
		Type:   JobEventStatus,
		Status: status,
		Error:  errMsg,
	})
}

// StartExportJob runs an export in the background. The returned job's
// Events channel streams status changes and closes when the job ends.
func (o *Orchestrator) StartExportJob(ctx context.Context, docID string, format export.Format) (*Job, error) {
	o.ensureJobMaps()

	// Fail fast on unknown documents so callers get a synchronous 404
	// instead of a failed job.
	if _, err := o.store.Get(ctx, docID); err != nil {
		return nil, err
	}

	jobID := uuid.New().String()
	job := &Job{
		ID:         jobID,
		DocumentID: docID,
		Format:     format,
		Status:     JobPending,
		StartedAt:  time.Now().UTC(),
		Events:     make(chan JobEvent, 16),
	}
	o.setJob(job)

	jobCtx, cancel := context.WithCancel(ctx)
	o.jobsMu.Lock()
	o.jobCancels[jobID] = cancel
	o.jobsMu.Unlock()

	o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: JobPending})

	go func() {
		defer func() {
			o.jobsMu.Lock()
			if j, ok := o.jobs[jobID]; ok {
				j.EndedAt = time.Now().UTC()
			}
			delete(o.jobCancels, jobID)
			j := o.jobs[jobID]
			o.jobsMu.Unlock()

			// Close events channel so websocket loop can terminate cleanly.
			if j != nil && j.Events != nil {
				close(j.Events)
			}
		}()

		o.setStatus(jobID, JobRunning, "")

		outPath, err := o.runExport(jobCtx, jobID, docID, format)
		if err != nil {
			select {
			case <-jobCtx.Done():
				o.setStatus(jobID, JobCanceled, jobCtx.Err().Error())
			default:
				o.setStatus(jobID, JobFailed, err.Error())
			}
			return
		}

		select {
		case <-jobCtx.Done():
			o.setStatus(jobID, JobCanceled, jobCtx.Err().Error())
		default:
			o.jobsMu.Lock()
			if j, ok := o.jobs[jobID]; ok {
				j.Status = JobDone
				j.OutputPath = outPath
			}
			o.jobsMu.Unlock()
			o.emitJobEvent(jobID, JobEvent{
				JobID:      jobID,
				Type:       JobEventResult,
				Status:     JobDone,
				OutputPath: outPath,
			})
		}
	}()

	return job, nil
}

// runExport performs the actual export and writes the artifact under the
// storage root.
func (o *Orchestrator) runExport(ctx context.Context, jobID, docID string, format export.Format) (string, error) {
	res, err := o.ExportDocument(ctx, docID, format)
	if err != nil {
		return "", err
	}

	dir := o.cfg.ExportDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	outPath := filepath.Join(dir, jobID+res.Extension)
	if err := os.WriteFile(outPath, res.Data, 0o644); err != nil {
		return "", fmt.Errorf("write export artifact: %w", err)
	}

	o.logger.Info("export finished",
		logging.Field{Key: "job_id", Value: jobID},
		logging.Field{Key: "document_id", Value: docID},
		logging.Field{Key: "format", Value: string(format)},
		logging.Field{Key: "path", Value: outPath})
	return outPath, nil
}

func (o *Orchestrator) CancelJob(jobID string) {
	o.jobsMu.Lock()
	cancel := o.jobCancels[jobID]
	o.jobsMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (o *Orchestrator) GetJob(jobID string) *Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	return o.jobs[jobID]
}

func (o *Orchestrator) ListJobs() []*Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	out := make([]*Job, 0, len(o.jobs))
	for _, j := range o.jobs {
		out = append(out, j)
	}
	return out
}

// Close releases the orchestrator's resources.
func (o *Orchestrator) Close() {
	o.jobsMu.Lock()
	for _, cancel := range o.jobCancels {
		cancel()
	}
	o.jobsMu.Unlock()
}
