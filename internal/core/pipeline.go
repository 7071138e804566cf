package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/datasweeper/internal/logging"
	"github.com/google/uuid"
)

// DefaultPreviewRows is how many rows a preview shows.
const DefaultPreviewRows = 5

// Observer receives pipeline events. Implementations must be safe for
// concurrent use when one Pipeline serves several batches.
type Observer interface {
	FileParsed(format Format, rows int)
	FileFailed(stage string, err error)
	DuplicatesRemoved(n int)
	CellsFilled(n int)
	Converted(format Format, size int)
}

type noopObserver struct{}

func (noopObserver) FileParsed(Format, int) {}
func (noopObserver) FileFailed(string, error) {}
func (noopObserver) DuplicatesRemoved(int) {}
func (noopObserver) CellsFilled(int) {}
func (noopObserver) Converted(Format, int) {}

// Pipeline runs parse, clean, select, chart and convert for one file at a time.
// It holds no per-file state.
type Pipeline struct {
	PreviewRows int
	ChartSeries int
	Observer    Observer
}

// NewPipeline returns a pipeline with default preview and chart sizes.
func NewPipeline() *Pipeline {
	return &Pipeline{
		PreviewRows: DefaultPreviewRows,
		ChartSeries: MaxChartSeries,
		Observer:    noopObserver{},
	}
}

func (p *Pipeline) observer() Observer {
	if p.Observer == nil {
		return noopObserver{}
	}
	return p.Observer
}

// Run parses req.Data and applies req.Action to the result. A file that
// fails to parse gets no ID.
func (p *Pipeline) Run(ctx context.Context, req FileRequest) FileResult {
	t, format, err := Parse(ctx, req.Name, req.Data)
	if err != nil {
		return p.fail(ctx, FileResult{Name: req.Name, Format: format}, "parse", err)
	}
	p.observer().FileParsed(format, t.NumRows())
	res := p.Apply(ctx, t, req.Name, req.Action)
	res.Format = format
	return res
}

// Apply runs the action against a copy of base; base itself is never modified.
// A projection naming an unknown column ends the run with the table as it was
// after cleaning.
func (p *Pipeline) Apply(ctx context.Context, base *Table, name string, act Action) FileResult {
	logger := logging.WithFields(ctx, "file", name)
	res := FileResult{ID: uuid.NewString(), Name: name}

	t := base.Clone()

	if steps := act.Cleaning.steps(); len(steps) > 0 {
		summary := &CleaningSummary{Steps: steps}
		for _, step := range steps {
			switch step {
			case StepDedupe:
				n := Deduplicate(t)
				summary.DuplicatesRemoved = n
				p.observer().DuplicatesRemoved(n)
				res.Messages = append(res.Messages, fmt.Sprintf("Duplicates removed: %d", n))
			case StepFill:
				fr := FillMissingWithMean(t)
				summary.CellsFilled = fr.CellsFilled
				summary.FilledColumns = fr.Columns
				p.observer().CellsFilled(fr.CellsFilled)
				res.Messages = append(res.Messages, fillMessage(fr))
			}
		}
		res.Cleaning = summary
		logger.Debug("cleaned table",
			"steps", steps,
			"duplicates_removed", summary.DuplicatesRemoved,
			"cells_filled", summary.CellsFilled,
		)
	}

	if act.Columns != nil {
		projected, err := Project(t, act.Columns)
		if err != nil {
			res.Table = t
			res.Preview = t.Preview(p.previewRows())
			return p.fail(ctx, res, "select", err)
		}
		t = projected
	}

	res.Table = t
	res.Preview = t.Preview(p.previewRows())

	if act.Chart {
		data, err := ExtractChartData(t, p.ChartSeries)
		switch {
		case errors.Is(err, ErrNoNumericData):
			res.Warnings = append(res.Warnings, FormatUserError(err))
			logger.Debug("chart skipped", "reason", err)
		case err != nil:
			return p.fail(ctx, res, "chart", err)
		default:
			res.Chart = BuildBarChart(data, name)
		}
	}

	if act.Convert != "" {
		conv, err := Convert(t, name, act.Convert)
		if err != nil {
			return p.fail(ctx, res, "convert", err)
		}
		res.Conversion = conv
		p.observer().Converted(act.Convert, conv.Size)
		logger.Debug("converted table", "target", conv.FileName, "bytes", conv.Size)
	}

	return res
}

func (p *Pipeline) previewRows() int {
	if p.PreviewRows <= 0 {
		return DefaultPreviewRows
	}
	return p.PreviewRows
}

// fail records a terminal per-file error and logs it.
func (p *Pipeline) fail(ctx context.Context, res FileResult, stage string, err error) FileResult {
	msg := MapError(err)
	res.Err = err
	res.Error = msg.Message
	res.Code = msg.Code
	res.Messages = append(res.Messages, FormatUserError(err))
	var mfe *MalformedFileError
	if errors.As(err, &mfe) {
		res.Detail = mfe.Detail()
		res.Messages = append(res.Messages, "Details: "+res.Detail)
	}
	p.observer().FileFailed(stage, err)
	logging.WithFields(ctx, "file", res.Name).Warn("file processing failed",
		"stage", stage,
		"error", err,
	)
	return res
}

func fillMessage(fr FillResult) string {
	if fr.CellsFilled == 0 {
		return "Missing values filled with column mean: nothing to fill"
	}
	return fmt.Sprintf("Missing values filled with column mean: %d cells in %s",
		fr.CellsFilled, strings.Join(fr.Columns, ", "))
}

// ProcessBatch runs every request in order. Each file succeeds or fails on
// its own; Complete is set once every file reached a terminal state. The
// returned error is non-nil only when ctx ends the batch early.
func (p *Pipeline) ProcessBatch(ctx context.Context, reqs []FileRequest) (BatchResult, error) {
	return runBatch(ctx, reqs, p.Run)
}

func runBatch(ctx context.Context, reqs []FileRequest, run func(context.Context, FileRequest) FileResult) (BatchResult, error) {
	batch := BatchResult{ID: uuid.NewString(), Files: make([]FileResult, 0, len(reqs))}
	logger := logging.WithFields(ctx, "batch_id", batch.ID)

	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			logger.Warn("batch interrupted", "processed", len(batch.Files), "total", len(reqs), "error", err)
			return batch, fmt.Errorf("batch %s: %w", batch.ID, err)
		}
		batch.Files = append(batch.Files, run(ctx, req))
	}

	batch.Complete = true
	logger.Info("batch processed",
		"files", len(batch.Files),
		"succeeded", batch.Succeeded(),
	)
	return batch, nil
}
