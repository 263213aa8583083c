package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/merchdeck/merchdeck/internal/config"
	"github.com/merchdeck/merchdeck/internal/ingest"
	"github.com/merchdeck/merchdeck/internal/manifest"
	"github.com/merchdeck/merchdeck/internal/match"
	"github.com/merchdeck/merchdeck/internal/media"
	"github.com/merchdeck/merchdeck/internal/pipeline"
	"github.com/merchdeck/merchdeck/internal/workbench"
	"github.com/merchdeck/merchdeck/pkg/events"
)

type mediaPhase int

const (
	phaseIdle mediaPhase = iota
	phaseStaged
	phaseMatched
	phaseRunning
	phaseFinished
)

type stagedMsg struct {
	manifest *manifest.Manifest
	report   manifest.Report
	images   []media.File
	analyses []media.Analysis
	err      error
}

type pipelineProgressMsg struct{ progress pipeline.Progress }

type pipelineDoneMsg struct {
	outcomes []pipeline.Outcome
	summary  pipeline.Summary
}

// mediaPane drives the bulk media workflow: stage files from the drop
// folder, validate the manifest, match images, run the upload pipeline.
type mediaPane struct {
	ctx      context.Context
	watcher  *ingest.Watcher
	uploader pipeline.Uploader
	cfg      config.PipelineConfig
	bus      *events.EventBus

	phase    mediaPhase
	manifest *manifest.Manifest
	report   manifest.Report
	images   []media.File
	analyses []media.Analysis
	result   *match.Result

	progressCh chan tea.Msg
	cancelRun  context.CancelFunc
	latest     pipeline.Progress
	outcomes   []pipeline.Outcome
	summary    pipeline.Summary
	stageErr   error

	errStyle  lipgloss.Style
	warnStyle lipgloss.Style
	okStyle   lipgloss.Style
	dimStyle  lipgloss.Style
}

func newMediaPane(ctx context.Context, watcher *ingest.Watcher, uploader pipeline.Uploader, cfg config.PipelineConfig, bus *events.EventBus) workbench.Pane {
	return &mediaPane{
		ctx:       ctx,
		watcher:   watcher,
		uploader:  uploader,
		cfg:       cfg,
		bus:       bus,
		errStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		warnStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		okStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("82")),
		dimStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

func (p *mediaPane) Init() tea.Cmd { return nil }

func (p *mediaPane) Update(msg tea.Msg) (workbench.Pane, tea.Cmd) {
	switch msg := msg.(type) {
	case stagedMsg:
		p.stageErr = msg.err
		if msg.err == nil {
			p.manifest = msg.manifest
			p.report = msg.report
			p.images = msg.images
			p.analyses = msg.analyses
			p.phase = phaseStaged
		}
		return p, nil

	case pipelineProgressMsg:
		p.latest = msg.progress
		return p, p.waitProgress()

	case pipelineDoneMsg:
		p.outcomes = msg.outcomes
		p.summary = msg.summary
		p.phase = phaseFinished
		p.cancelRun = nil
		return p, nil

	case tea.KeyMsg:
		return p.handleKey(msg)
	}
	return p, nil
}

func (p *mediaPane) handleKey(msg tea.KeyMsg) (workbench.Pane, tea.Cmd) {
	switch msg.String() {
	case "l":
		if p.phase == phaseIdle || p.phase == phaseStaged || p.phase == phaseFinished {
			return p, p.stage()
		}
	case "m":
		// Matching requires a valid manifest; a failed validation
		// disables everything downstream.
		if p.phase == phaseStaged && p.report.IsValid {
			names := make([]string, len(p.images))
			for i, f := range p.images {
				names[i] = f.Name
			}
			p.result = match.Run(p.manifest, names, match.DefaultSettings())
			p.phase = phaseMatched
		}
	case "enter":
		if p.phase == phaseMatched && len(p.result.Matches) > 0 {
			return p, p.start()
		}
	case "c":
		if p.phase == phaseRunning && p.cancelRun != nil {
			p.cancelRun()
		}
	case "esc":
		if p.phase != phaseRunning {
			p.reset()
		}
	}
	return p, nil
}

func (p *mediaPane) reset() {
	p.phase = phaseIdle
	p.manifest = nil
	p.images = nil
	p.analyses = nil
	p.result = nil
	p.outcomes = nil
	p.stageErr = nil
}

// stage reads the drop folder: the first manifest file plus every
// valid image, in directory order.
func (p *mediaPane) stage() tea.Cmd {
	return func() tea.Msg {
		if p.watcher == nil {
			return stagedMsg{err: fmt.Errorf("no drop folder configured")}
		}
		var manifestPath string
		var imageFiles []ingest.File
		for _, f := range p.watcher.Files() {
			switch f.Kind {
			case ingest.KindManifest:
				if manifestPath == "" {
					manifestPath = f.Path
				}
			case ingest.KindImage:
				imageFiles = append(imageFiles, f)
			}
		}
		if manifestPath == "" {
			return stagedMsg{err: fmt.Errorf("no manifest file in drop folder")}
		}

		blob, err := os.ReadFile(manifestPath)
		if err != nil {
			return stagedMsg{err: err}
		}
		m, err := manifest.Parse(string(blob))
		if err != nil {
			return stagedMsg{err: err}
		}

		var files []media.File
		for _, f := range imageFiles {
			data, err := os.ReadFile(f.Path)
			if err != nil {
				continue
			}
			if media.ValidateFile(f.Name, data) != nil {
				continue
			}
			files = append(files, media.File{Name: f.Name, Data: data})
		}

		return stagedMsg{
			manifest: m,
			report:   manifest.Validate(m),
			images:   files,
			analyses: media.AnalyseAll(files),
		}
	}
}

func (p *mediaPane) start() tea.Cmd {
	byName := make(map[string][]byte, len(p.images))
	for _, f := range p.images {
		byName[f.Name] = f.Data
	}
	items := make([]pipeline.Item, 0, len(p.result.Matches))
	for _, m := range p.result.Matches {
		items = append(items, pipeline.Item{
			RecordKey: m.RecordKey,
			FileName:  m.FileName,
			Data:      byName[m.FileName],
		})
	}

	runCtx, cancel := context.WithCancel(p.ctx)
	p.cancelRun = cancel
	p.progressCh = make(chan tea.Msg, 64)
	p.phase = phaseRunning
	p.latest = pipeline.Progress{Total: len(items)}

	settings := pipeline.Settings{
		ProcessImages:       p.cfg.ProcessImages,
		ImageQuality:        p.cfg.ImageQuality,
		BatchSize:           p.cfg.BatchSize,
		DelayBetweenBatches: p.cfg.Delay(),
		UploadTimeout:       p.cfg.UploadTimeoutDuration(),
	}
	runner := pipeline.NewRunner(p.uploader, settings, p.bus, func(prog pipeline.Progress) {
		select {
		case p.progressCh <- pipelineProgressMsg{progress: prog}:
		default:
		}
	})

	ch := p.progressCh
	go func() {
		outcomes, summary := runner.Run(runCtx, items)
		ch <- pipelineDoneMsg{outcomes: outcomes, summary: summary}
	}()
	return p.waitProgress()
}

func (p *mediaPane) waitProgress() tea.Cmd {
	ch := p.progressCh
	return func() tea.Msg { return <-ch }
}

func (p *mediaPane) View(width, height int) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226")).Render("Bulk Media Upload")
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")

	if p.stageErr != nil {
		b.WriteString(p.errStyle.Render(p.stageErr.Error()))
		b.WriteString("\n\n")
	}

	switch p.phase {
	case phaseIdle:
		p.viewIdle(&b)
	case phaseStaged:
		p.viewStaged(&b)
	case phaseMatched:
		p.viewMatched(&b)
	case phaseRunning:
		p.viewRunning(&b)
	case phaseFinished:
		p.viewFinished(&b)
	}
	return b.String()
}

func (p *mediaPane) viewIdle(b *strings.Builder) {
	if p.watcher == nil {
		b.WriteString("no drop folder configured\n")
		return
	}
	files := p.watcher.Files()
	fmt.Fprintf(b, "drop folder: %d file(s) found\n\n", len(files))
	for _, f := range files {
		fmt.Fprintf(b, "  %-10s %s\n", f.Kind, f.Name)
	}
	b.WriteString("\n")
	b.WriteString(p.dimStyle.Render("l load files"))
}

func (p *mediaPane) viewStaged(b *strings.Builder) {
	fmt.Fprintf(b, "manifest: %d record(s), key column %q, mode %s\n",
		len(p.manifest.Rows), p.manifest.KeyColumn, p.manifest.Mode)
	fmt.Fprintf(b, "images:   %d file(s)\n", len(p.images))

	resizeCount := 0
	for _, a := range p.analyses {
		if a.NeedsResize {
			resizeCount++
		}
	}
	if resizeCount > 0 {
		fmt.Fprintf(b, "          %d oversized, will be resized\n", resizeCount)
	}
	b.WriteString("\n")

	fmt.Fprintf(b, "quality score: %d/100\n", p.report.QualityScore)
	for _, e := range p.report.Errors {
		b.WriteString(p.errStyle.Render("  error: "+e) + "\n")
	}
	for _, w := range p.report.Warnings {
		b.WriteString(p.warnStyle.Render("  warning: "+w) + "\n")
	}
	for _, s := range p.report.Suggestions {
		b.WriteString(p.dimStyle.Render("  suggestion: "+s) + "\n")
	}
	b.WriteString("\n")
	if p.report.IsValid {
		b.WriteString(p.dimStyle.Render("m match images  l reload  esc reset"))
	} else {
		b.WriteString(p.errStyle.Render("manifest invalid; matching disabled") + "\n")
		b.WriteString(p.dimStyle.Render("l reload  esc reset"))
	}
}

func (p *mediaPane) viewMatched(b *strings.Builder) {
	r := p.result
	fmt.Fprintf(b, "matched %d image(s) across %d record(s), average confidence %.2f\n\n",
		len(r.Matches), r.Stats.MatchedRecords, r.Stats.AverageConfidence)

	for s, n := range r.Stats.ByStrategy {
		fmt.Fprintf(b, "  %-12s %d\n", s, n)
	}
	if len(r.UnmatchedRecords) > 0 {
		b.WriteString(p.warnStyle.Render(fmt.Sprintf("  unmatched records: %d", len(r.UnmatchedRecords))) + "\n")
	}
	if len(r.UnmatchedImages) > 0 {
		b.WriteString(p.warnStyle.Render(fmt.Sprintf("  unmatched images: %d", len(r.UnmatchedImages))) + "\n")
	}
	for _, rec := range r.Recommendations {
		b.WriteString(p.dimStyle.Render("  note: "+recommendationText(rec)) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(p.dimStyle.Render("enter start upload  esc reset"))
}

func (p *mediaPane) viewRunning(b *strings.Builder) {
	prog := p.latest
	fmt.Fprintf(b, "uploading %d/%d (batch %d of %d)\n\n",
		prog.Current, prog.Total, prog.Batch, prog.TotalBatches)
	if prog.RecordKey != "" {
		fmt.Fprintf(b, "  %s  %s  %s\n", prog.RecordKey, prog.FileName, prog.Stage)
		b.WriteString(renderBar(prog.StageProgress, 30))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(p.dimStyle.Render("c cancel"))
}

func (p *mediaPane) viewFinished(b *strings.Builder) {
	s := p.summary
	b.WriteString(p.okStyle.Render(fmt.Sprintf("done: %d succeeded, %d failed, %d cancelled\n", s.Successful, s.Failed, s.Cancelled)))
	fmt.Fprintf(b, "\n  records:      %d\n", s.UniqueRecords)
	fmt.Fprintf(b, "  bytes:        %d -> %d (saved %d)\n", s.TotalOriginalBytes, s.TotalProcessedBytes, s.SpaceSaved)
	fmt.Fprintf(b, "  efficiency:   %.0f%%\n", s.Efficiency*100)

	for _, o := range p.outcomes {
		if o.Err != nil {
			b.WriteString(p.errStyle.Render(fmt.Sprintf("  %s %s: %v", o.RecordKey, o.FileName, o.Err)) + "\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(p.dimStyle.Render("l load again  esc reset"))
}

func recommendationText(token string) string {
	switch token {
	case "high_unmatched_records":
		return "many records have no image; check key naming"
	case "low_confidence_matches":
		return "many matches are low confidence; review before uploading"
	case "unmatched_images":
		return "some images matched no record"
	default:
		return token
	}
}

func renderBar(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction * float64(width))
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}
