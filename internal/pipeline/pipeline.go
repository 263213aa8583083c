// Package pipeline runs matched images through processing and upload in
// contiguous, bounded batches.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/merchdeck/merchdeck/internal/media"
	"github.com/merchdeck/merchdeck/pkg/events"
)

// Stage is a per-item lifecycle phase. Terminal stages are reported
// exactly once.
type Stage string

const (
	StageQueued     Stage = "queued"
	StagePreparing  Stage = "preparing"
	StageUploading  Stage = "uploading"
	StageProcessing Stage = "processing"
	StageFinalizing Stage = "finalizing"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
	StageCancelled  Stage = "cancelled"
)

// Item is one match queued for upload.
type Item struct {
	RecordKey string
	FileName  string
	Data      []byte
}

// Settings tunes a pipeline run. Zero values fall back to defaults.
type Settings struct {
	ProcessImages       bool
	ImageQuality        float64
	BatchSize           int
	DelayBetweenBatches time.Duration
	UploadTimeout       time.Duration
	// StageTick bounds the time spent reporting each non-upload stage.
	StageTick time.Duration
}

// DefaultSettings returns the pipeline defaults.
func DefaultSettings() Settings {
	return Settings{
		ProcessImages:       true,
		ImageQuality:        0.85,
		BatchSize:           3,
		DelayBetweenBatches: 2 * time.Second,
		UploadTimeout:       30 * time.Second,
	}
}

func (s Settings) normalized() Settings {
	if s.BatchSize < 1 {
		s.BatchSize = 3
	}
	if s.ImageQuality <= 0 || s.ImageQuality > 1 {
		s.ImageQuality = 0.85
	}
	return s
}

// Uploader pushes one artifact upstream. Implementations do not retry;
// failures surface as per-item outcomes.
type Uploader interface {
	Upload(ctx context.Context, recordKey, fileName string, data []byte) (string, error)
}

// Progress is emitted on every stage transition.
type Progress struct {
	Current       int
	Total         int
	RecordKey     string
	FileName      string
	Stage         Stage
	Status        string
	Batch         int
	TotalBatches  int
	StageProgress float64
}

// Outcome is the terminal result for one item, delivered in input
// order.
type Outcome struct {
	RecordKey     string
	FileName      string
	Stage         Stage
	Message       string
	Err           error
	OriginalSize  int64
	ProcessedSize int64
	Duration      time.Duration
}

// Summary aggregates a finished run.
type Summary struct {
	Total               int
	Successful          int
	Failed              int
	Cancelled           int
	UniqueRecords       int
	AvgImagesPerRecord  float64
	TotalOriginalBytes  int64
	TotalProcessedBytes int64
	SpaceSaved          int64
	AvgCompressionRatio float64
	Efficiency          float64
}

// Runner executes pipeline runs. The progress callback is serialized;
// events for one item always arrive in stage order.
type Runner struct {
	uploader   Uploader
	settings   Settings
	bus        *events.EventBus
	onProgress func(Progress)

	mu sync.Mutex
}

// NewRunner builds a runner. The bus and progress callback may be nil.
func NewRunner(uploader Uploader, settings Settings, bus *events.EventBus, onProgress func(Progress)) *Runner {
	return &Runner{
		uploader:   uploader,
		settings:   settings.normalized(),
		bus:        bus,
		onProgress: onProgress,
	}
}

// Run processes all items and returns their outcomes in input order.
// Cancellation lets in-flight items finish, marks everything not yet
// started as cancelled, and stops further batches.
func (r *Runner) Run(ctx context.Context, items []Item) ([]Outcome, Summary) {
	outcomes := make([]Outcome, len(items))
	total := len(items)
	totalBatches := (total + r.settings.BatchSize - 1) / r.settings.BatchSize
	sem := semaphore.NewWeighted(int64(r.settings.BatchSize))

	cancelled := false
	for start := 0; start < total; start += r.settings.BatchSize {
		if ctx.Err() != nil {
			cancelled = true
		}
		end := start + r.settings.BatchSize
		if end > total {
			end = total
		}
		batch := start/r.settings.BatchSize + 1

		if cancelled {
			for i := start; i < end; i++ {
				outcomes[i] = Outcome{
					RecordKey:    items[i].RecordKey,
					FileName:     items[i].FileName,
					Stage:        StageCancelled,
					Message:      "cancelled before start",
					OriginalSize: int64(len(items[i].Data)),
				}
				r.emit(progressFor(items[i], i, total, batch, totalBatches, StageCancelled, 0))
			}
			continue
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			if err := sem.Acquire(ctx, 1); err != nil {
				outcomes[i] = Outcome{
					RecordKey: items[i].RecordKey,
					FileName:  items[i].FileName,
					Stage:     StageCancelled,
					Message:   "cancelled before start",
				}
				continue
			}
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				defer sem.Release(1)
				outcomes[idx] = r.runItem(ctx, items[idx], idx, total, batch, totalBatches)
			}(i)
		}
		wg.Wait()

		if ctx.Err() != nil {
			cancelled = true
			continue
		}
		if end < total && r.settings.DelayBetweenBatches > 0 {
			select {
			case <-ctx.Done():
				cancelled = true
			case <-time.After(r.settings.DelayBetweenBatches):
			}
		}
	}

	summary := summarize(outcomes)
	if r.bus != nil {
		r.bus.Publish(events.Event{
			Type:   events.PipelineFinished,
			Source: "pipeline",
			Data: map[string]interface{}{
				"successful": summary.Successful,
				"failed":     summary.Failed,
				"cancelled":  summary.Cancelled,
			},
		})
	}
	return outcomes, summary
}

func (r *Runner) runItem(ctx context.Context, item Item, idx, total, batch, totalBatches int) Outcome {
	started := time.Now()
	outcome := Outcome{
		RecordKey:    item.RecordKey,
		FileName:     item.FileName,
		OriginalSize: int64(len(item.Data)),
	}
	report := func(stage Stage, progress float64) {
		r.emit(progressFor(item, idx, total, batch, totalBatches, stage, progress))
	}

	report(StagePreparing, 0)
	data := item.Data
	outcome.ProcessedSize = outcome.OriginalSize
	if r.settings.ProcessImages {
		processed := media.Process(item.Data, r.settings.ImageQuality)
		data = processed.Data
		outcome.ProcessedSize = processed.ProcessedSize
	}
	r.stagePause(ctx)

	report(StageUploading, 0.25)
	uploadCtx := ctx
	if r.settings.UploadTimeout > 0 {
		var cancel context.CancelFunc
		uploadCtx, cancel = context.WithTimeout(ctx, r.settings.UploadTimeout)
		defer cancel()
	}
	message, err := r.uploader.Upload(uploadCtx, item.RecordKey, item.FileName, data)
	if err != nil {
		outcome.Stage = StageFailed
		// A run-level cancel is not an upload failure.
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			outcome.Stage = StageCancelled
		}
		outcome.Err = err
		outcome.Duration = time.Since(started)
		report(outcome.Stage, 1)
		return outcome
	}

	report(StageProcessing, 0.6)
	r.stagePause(ctx)
	report(StageFinalizing, 0.9)
	r.stagePause(ctx)

	outcome.Stage = StageDone
	outcome.Message = message
	outcome.Duration = time.Since(started)
	report(StageDone, 1)
	return outcome
}

// stagePause bounds how long a reporting stage lingers.
func (r *Runner) stagePause(ctx context.Context) {
	if r.settings.StageTick <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(r.settings.StageTick):
	}
}

func (r *Runner) emit(p Progress) {
	r.mu.Lock()
	if r.onProgress != nil {
		r.onProgress(p)
	}
	r.mu.Unlock()

	if r.bus != nil {
		r.bus.Publish(events.Event{
			Type:   events.PipelineProgress,
			Source: "pipeline",
			Data: map[string]interface{}{
				"current":       p.Current,
				"total":         p.Total,
				"recordKey":     p.RecordKey,
				"fileName":      p.FileName,
				"stage":         string(p.Stage),
				"status":        p.Status,
				"batch":         p.Batch,
				"totalBatches":  p.TotalBatches,
				"stageProgress": p.StageProgress,
			},
		})
	}
}

func progressFor(item Item, idx, total, batch, totalBatches int, stage Stage, progress float64) Progress {
	status := "active"
	switch stage {
	case StageDone:
		status = "success"
	case StageFailed:
		status = "error"
	case StageCancelled:
		status = "cancelled"
	}
	return Progress{
		Current:       idx + 1,
		Total:         total,
		RecordKey:     item.RecordKey,
		FileName:      item.FileName,
		Stage:         stage,
		Status:        status,
		Batch:         batch,
		TotalBatches:  totalBatches,
		StageProgress: progress,
	}
}

func summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	records := make(map[string]int)
	ratioSum := 0.0
	ratioCount := 0
	for _, o := range outcomes {
		switch o.Stage {
		case StageDone:
			s.Successful++
			s.TotalOriginalBytes += o.OriginalSize
			s.TotalProcessedBytes += o.ProcessedSize
			if o.OriginalSize > 0 {
				ratioSum += float64(o.ProcessedSize) / float64(o.OriginalSize)
				ratioCount++
			}
		case StageCancelled:
			s.Cancelled++
		default:
			s.Failed++
		}
		records[o.RecordKey]++
	}
	s.UniqueRecords = len(records)
	if s.UniqueRecords > 0 {
		s.AvgImagesPerRecord = float64(len(outcomes)) / float64(s.UniqueRecords)
	}
	s.SpaceSaved = s.TotalOriginalBytes - s.TotalProcessedBytes
	if ratioCount > 0 {
		s.AvgCompressionRatio = ratioSum / float64(ratioCount)
	}
	if s.Total > 0 {
		s.Efficiency = float64(s.Successful) / float64(s.Total)
	}
	return s
}
