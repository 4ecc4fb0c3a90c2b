package detect

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dupfinder/internal/cluster"
	"dupfinder/internal/config"
	"dupfinder/internal/ingest"
	"dupfinder/internal/logger"
	"dupfinder/internal/pipeline"
	"dupfinder/internal/report"
	"dupfinder/internal/sentence"
)

type Input struct {
	Filename string
	Path     string
}

type Result struct {
	RunID       string
	GeneratedAt time.Time
	Documents   int
	Clusters    []cluster.Cluster
	Count       int
	Report      string
}

type Engine struct {
	Extractor ingest.Extractor
	Threshold float64
	Workers   int
	Logger    *logger.Logger
	Now       func() time.Time
	NewID     func() string
	// Archive, when set, receives every finished result. Its error is logged
	// and does not fail the run.
	Archive func(Result) error
}

func New(cfg config.Config, log *logger.Logger) *Engine {
	return &Engine{
		Extractor: ingest.FileExtractor{},
		Threshold: cfg.SimilarityThreshold,
		Workers:   cfg.ExtractWorkers,
		Logger:    log,
	}
}

// Run extracts every input, collects sentence occurrences in input, page and
// segmentation order, clusters them once and renders the report. A document
// that cannot be read contributes nothing; only cancellation fails the run.
func (e *Engine) Run(ctx context.Context, inputs []Input) (Result, error) {
	started := e.now()
	runID := e.newID()
	e.Logger.Log(logger.LevelInfo, "BOOT", "Run started", fmt.Sprintf("id=%s documents=%d", runID, len(inputs)))

	jobs := make([]pipeline.Job, len(inputs))
	for i, in := range inputs {
		jobs[i] = pipeline.Job{Index: i, Filename: in.Filename, Path: in.Path}
	}
	extracted := pipeline.ExtractAll(ctx, jobs, e.Workers, func(ctx context.Context, job pipeline.Job) (ingest.Document, error) {
		return ingest.Load(ctx, e.extractor(), job.Filename, job.Path)
	})

	var occurrences []cluster.Occurrence
	for _, res := range extracted {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if res.Err != nil {
			e.Logger.Log(logger.LevelRisk, "INGEST", "Extraction failed", fmt.Sprintf("%s: %v", res.Job.Filename, res.Err))
		}
		occurrences = append(occurrences, e.documentOccurrences(res.Value)...)
	}
	e.Logger.Since("INGEST", started)

	clusterStart := time.Now()
	clusters := Detect(occurrences, e.threshold())
	e.Logger.Log(logger.LevelAnalysis, "CLUSTER", "Clustering completed", fmt.Sprintf("occurrences=%d clusters=%d", len(occurrences), len(clusters)))
	e.Logger.Since("CLUSTER", clusterStart)

	generatedAt := e.now()
	result := Result{
		RunID:       runID,
		GeneratedAt: generatedAt,
		Documents:   len(inputs),
		Clusters:    clusters,
		Count:       len(clusters),
		Report:      report.Generate(clusters, generatedAt),
	}
	e.Logger.Log(logger.LevelInfo, "REPORT", "Analysis complete", fmt.Sprintf("Found %d duplicate sentences.", result.Count))

	if e.Archive != nil {
		if err := e.Archive(result); err != nil {
			e.Logger.Log(logger.LevelRisk, "ARCHIVE", "Archiving run failed", err.Error())
		}
	}
	return result, nil
}

func (e *Engine) documentOccurrences(doc ingest.Document) []cluster.Occurrence {
	var out []cluster.Occurrence
	total := 0
	for _, page := range doc.PageNumbers() {
		sentences := sentence.Segment(doc.Pages[page])
		total += len(sentences)
		e.Logger.Log(logger.LevelAnalysis, "SEGMENT", "Page segmented", fmt.Sprintf("File: %s, Page %d: %d sentences", doc.Name, page, len(sentences)))
		for _, s := range sentences {
			out = append(out, cluster.Occurrence{Text: s, Filename: doc.Name, Page: page})
		}
	}
	e.Logger.Log(logger.LevelAnalysis, "SEGMENT", "Document segmented", fmt.Sprintf("Total sentences in %s: %d", doc.Name, total))
	return out
}

// Occurrences lists the normalized sentences of doc in page order.
func Occurrences(doc ingest.Document) []cluster.Occurrence {
	return (&Engine{}).documentOccurrences(doc)
}

// Detect clusters occurrences that are already in run order.
func Detect(occurrences []cluster.Occurrence, threshold float64) []cluster.Cluster {
	return cluster.Find(occurrences, threshold)
}

func (e *Engine) extractor() ingest.Extractor {
	if e.Extractor == nil {
		return ingest.FileExtractor{}
	}
	return e.Extractor
}

func (e *Engine) threshold() float64 {
	if e.Threshold <= 0 {
		return cluster.DefaultThreshold
	}
	return e.Threshold
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}
