// Package app contains the batch pipeline of the evergreen classifier.
// It handles the stage sequencing separated from CLI concerns.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/chriscorrea/evergreen/internal/checkpoint"
	"github.com/chriscorrea/evergreen/internal/classify"
	"github.com/chriscorrea/evergreen/internal/corpus"
	"github.com/chriscorrea/evergreen/internal/dataset"
	"github.com/chriscorrea/evergreen/internal/extract"
	"github.com/chriscorrea/evergreen/internal/termfilter"
	"github.com/chriscorrea/evergreen/internal/textnorm"
	"github.com/chriscorrea/evergreen/internal/tfidf"
	"github.com/google/uuid"
)

// Output file names, written under Config.OutputDir
const (
	TrainPredictionsFile = "prediction_train_data.csv"
	TestPredictionsFile  = "prediction_test_data.csv"
)

// Config holds all options of a pipeline run.
type Config struct {
	TrainPath     string // training table: path or "-"
	TestPath      string // test table: path or "-"
	OutputDir     string
	CheckpointDir string
	Checkpoints   bool // write intermediate artifacts

	Model    classify.Kind
	Stem     textnorm.StemMode
	MinDF    int
	Folds    int
	IDColumn int // column written as the prediction identifier

	Threshold               float64 // high-frequency cutoff, termfilter.Threshold when 0
	VocabularyFromTrainOnly bool

	RunID string // generated when empty
}

// Result summarizes a completed run.
type Result struct {
	RunID              string
	TrainOutput        string
	TestOutput         string
	HighFrequencyTerms int
	Features           int // columns the final model used
	CVScore            float64
	CVErr              error
}

// page is the normalized content of one record
type page struct {
	title string
	body  string
	url   string
}

// Run executes the full pipeline with the given configuration.
//
// Processing Pipeline:
//  1. Load the training and test tables
//  2. Extract and normalize title, body and URL of every record
//  3. Assemble one corpus entry per record
//  4. Remove high-frequency terms shared by both classes
//  5. Vectorize with tf-idf
//  6. Fit the classifier, cross-validate and predict
//  7. Write both prediction tables
//
// Any failure aborts the run; only the cross-validation score is allowed to
// be unavailable. ctx is checked between stages so an interrupt stops the
// run before outputs are written.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = termfilter.Threshold
	}

	// tag every log line of this run
	prev := slog.Default()
	slog.SetDefault(prev.With("run_id", cfg.RunID))
	defer slog.SetDefault(prev)

	slog.Info("Starting run", "model", cfg.Model, "stem", cfg.Stem, "min_df", cfg.MinDF, "folds", cfg.Folds)

	if err := textnorm.Preload(cfg.Stem); err != nil {
		return nil, fmt.Errorf("failed to load language resources: %w", err)
	}

	store, err := checkpoint.New(cfg.CheckpointDir, cfg.RunID, cfg.Checkpoints)
	if err != nil {
		return nil, err
	}

	// step 1: load tables
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	done := store.Begin("load")
	train, err := dataset.Load(cfg.TrainPath, dataset.Options{Labeled: true, IDColumn: cfg.IDColumn})
	if err != nil {
		return nil, fmt.Errorf("failed to load training data: %w", err)
	}
	test, err := dataset.Load(cfg.TestPath, dataset.Options{IDColumn: cfg.IDColumn})
	if err != nil {
		return nil, fmt.Errorf("failed to load test data: %w", err)
	}
	done()
	slog.Info("Loaded tables", "train_records", len(train.Records), "test_records", len(test.Records))

	// step 2: normalize records
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	done = store.Begin("preprocess")
	normalizer := textnorm.New()
	extractor := extract.New(normalizer, cfg.Stem)

	trainPages, err := preprocess(extractor, normalizer, train, cfg.Stem)
	if err != nil {
		return nil, fmt.Errorf("failed to preprocess training data: %w", err)
	}
	testPages, err := preprocess(extractor, normalizer, test, cfg.Stem)
	if err != nil {
		return nil, fmt.Errorf("failed to preprocess test data: %w", err)
	}
	if err := savePages(store, trainPages, checkpoint.PreprocessedTrainTitle, checkpoint.PreprocessedTrainBody, checkpoint.PreprocessedTrainURL); err != nil {
		return nil, err
	}
	if err := savePages(store, testPages, checkpoint.PreprocessedTestTitle, checkpoint.PreprocessedTestBody, checkpoint.PreprocessedTestURL); err != nil {
		return nil, err
	}
	done()

	// step 3: assemble corpora
	trainCorpus, err := assemble(trainPages)
	if err != nil {
		return nil, err
	}
	testCorpus, err := assemble(testPages)
	if err != nil {
		return nil, err
	}

	// step 4: high-frequency term filter (training data only decides)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	done = store.Begin("filter")
	labels := train.Labels()
	ignore, err := termfilter.ComputeWithThreshold(trainCorpus, labels, cfg.Threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to compute high-frequency terms: %w", err)
	}
	slog.Info("Computed high-frequency terms", "count", len(ignore), "threshold", cfg.Threshold)

	trainCorpus = termfilter.Apply(trainCorpus, ignore)
	testCorpus = termfilter.Apply(testCorpus, ignore)
	if err := store.Save(checkpoint.HighFrequencyWords, ignore.Sorted()); err != nil {
		return nil, err
	}
	if err := store.Save(checkpoint.ModifiedTrain, trainCorpus); err != nil {
		return nil, err
	}
	if err := store.Save(checkpoint.ModifiedTest, testCorpus); err != nil {
		return nil, err
	}
	done()

	// step 5: vectorize
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	done = store.Begin("vectorize")
	trainMatrix, testMatrix := vectorize(trainCorpus, testCorpus, cfg)
	done()

	// step 6: classify
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	done = store.Begin("classify")
	predictions, err := classify.Run(cfg.Model, trainMatrix, testMatrix, labels, cfg.Folds)
	if err != nil {
		return nil, fmt.Errorf("failed to classify: %w", err)
	}
	if predictions.CVErr != nil {
		slog.Warn("Cross-validation score unavailable", "folds", cfg.Folds, "error", predictions.CVErr)
	} else {
		slog.Info("Cross-validated ROC AUC", "model", cfg.Model, "folds", cfg.Folds, "auc", predictions.CVScore)
	}
	done()

	// step 7: write predictions
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	done = store.Begin("write")
	result := &Result{
		RunID:              cfg.RunID,
		TrainOutput:        filepath.Join(cfg.OutputDir, TrainPredictionsFile),
		TestOutput:         filepath.Join(cfg.OutputDir, TestPredictionsFile),
		HighFrequencyTerms: len(ignore),
		Features:           predictions.Features,
		CVScore:            predictions.CVScore,
		CVErr:              predictions.CVErr,
	}
	if err := dataset.WriteResults(result.TrainOutput, train.IDs(), predictions.Train); err != nil {
		return nil, fmt.Errorf("failed to write training predictions: %w", err)
	}
	if err := dataset.WriteResults(result.TestOutput, test.IDs(), predictions.Test); err != nil {
		return nil, fmt.Errorf("failed to write test predictions: %w", err)
	}
	done()

	if err := store.WriteManifest(); err != nil {
		return nil, err
	}

	slog.Info("Run complete", "train_output", result.TrainOutput, "test_output", result.TestOutput)
	return result, nil
}

// preprocess extracts and normalizes every record of a table in order.
func preprocess(extractor *extract.Extractor, normalizer *textnorm.Normalizer, table *dataset.Table, mode textnorm.StemMode) ([]page, error) {
	pages := make([]page, len(table.Records))
	for i, rec := range table.Records {
		title, body, err := extractor.Content(rec.Payload)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		pages[i] = page{
			title: title,
			body:  body,
			url:   normalizer.NormalizeURL(rec.URL, mode),
		}
	}
	return pages, nil
}

func savePages(store *checkpoint.Store, pages []page, titleName, bodyName, urlName string) error {
	titles := make([]string, len(pages))
	bodies := make([]string, len(pages))
	urls := make([]string, len(pages))
	for i, p := range pages {
		titles[i], bodies[i], urls[i] = p.title, p.body, p.url
	}

	if err := store.Save(titleName, titles); err != nil {
		return err
	}
	if err := store.Save(bodyName, bodies); err != nil {
		return err
	}
	return store.Save(urlName, urls)
}

func assemble(pages []page) ([]string, error) {
	urls := make([]string, len(pages))
	titles := make([]string, len(pages))
	bodies := make([]string, len(pages))
	for i, p := range pages {
		urls[i], titles[i], bodies[i] = p.url, p.title, p.body
	}

	entries, err := corpus.Assemble(urls, titles, bodies)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble corpus: %w", err)
	}
	return entries, nil
}

// vectorize builds the train and test matrices. By default the vocabulary is
// fitted on both corpora together; VocabularyFromTrainOnly restricts it to
// the training corpus.
func vectorize(trainCorpus, testCorpus []string, cfg Config) (*tfidf.Matrix, *tfidf.Matrix) {
	opts := tfidf.DefaultOptions()
	if cfg.MinDF > 0 {
		opts.MinDF = cfg.MinDF
	}

	var trainMatrix, testMatrix *tfidf.Matrix
	var vectorizer *tfidf.Vectorizer
	if cfg.VocabularyFromTrainOnly {
		vectorizer = tfidf.Fit(trainCorpus, opts)
		trainMatrix = vectorizer.Transform(trainCorpus)
		testMatrix = vectorizer.Transform(testCorpus)
	} else {
		trainMatrix, testMatrix, vectorizer = tfidf.FitTransformSplit(trainCorpus, testCorpus, opts)
	}

	slog.Info("Vectorized corpus", "terms", len(vectorizer.Terms), "min_df", opts.MinDF, "train_only", cfg.VocabularyFromTrainOnly)
	return trainMatrix, testMatrix
}
