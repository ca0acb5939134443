package resolver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"github.com/filmshelf/filmshelf/internal/library"
	"github.com/filmshelf/filmshelf/internal/metadata"
	"github.com/filmshelf/filmshelf/internal/models"
	"github.com/filmshelf/filmshelf/internal/poster"
	"github.com/filmshelf/filmshelf/internal/repository"
	"github.com/filmshelf/filmshelf/internal/scanner"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// defaultConcurrency bounds the provider fan-out per batch.
const defaultConcurrency = 4

// Batch is one resolution submission.
type Batch struct {
	ID          uuid.UUID
	Generation  uint64
	Files       []string
	CategoryIDs []uuid.UUID
}

// Resolver runs the batch resolution workflow: parse, dedupe, check the
// store, fetch details and posters, link categories, report. Steps are
// strictly sequential; the fan-out inside a step collects every outcome
// before the next step starts. A single item's failure never aborts its
// siblings or the batch.
type Resolver struct {
	fileRepo     *repository.FileRepository
	movieRepo    *repository.MovieRepository
	posterRepo   *repository.PosterRepository
	categoryRepo *repository.CategoryRepository
	details      metadata.DetailProvider
	images       *metadata.ImageFetcher
	processor    *poster.Processor
	state        *library.State
	concurrency  int
}

func New(fileRepo *repository.FileRepository, movieRepo *repository.MovieRepository,
	posterRepo *repository.PosterRepository, categoryRepo *repository.CategoryRepository,
	details metadata.DetailProvider, images *metadata.ImageFetcher,
	processor *poster.Processor, state *library.State) *Resolver {
	return &Resolver{
		fileRepo:     fileRepo,
		movieRepo:    movieRepo,
		posterRepo:   posterRepo,
		categoryRepo: categoryRepo,
		details:      details,
		images:       images,
		processor:    processor,
		state:        state,
		concurrency:  defaultConcurrency,
	}
}

// ApplySettings retunes the poster encode quality and the detail provider
// request rate without a restart.
func (r *Resolver) ApplySettings(posterQuality int, providerRPS float64) {
	r.processor.SetQuality(posterQuality)
	if ra, ok := r.details.(metadata.RateAdjustable); ok {
		ra.SetRate(providerRPS)
	}
}

// item carries one deduplicated batch entry through the workflow.
type item struct {
	parsed      scanner.ParsedFile
	detail      *models.MovieDetail
	persisted   bool
	preexisting bool
	failure     *models.FailedFile
}

func (it *item) fail(reason models.FailureReason, message string) {
	it.failure = &models.FailedFile{
		FileName: it.parsed.FileName,
		Title:    it.parsed.Title,
		Reason:   reason,
		Message:  message,
	}
}

// Resolve runs the full workflow over a batch and always returns a report,
// whatever happened along the way. The final library reload is applied only
// if no newer batch was submitted while this one ran.
func (r *Resolver) Resolve(ctx context.Context, batch Batch) *models.ResolveReport {
	report := &models.ResolveReport{BatchID: batch.ID}

	items := r.parseAndDedupe(batch.Files)
	report.Processed = len(items)
	log.Printf("[resolver] batch %s: %d files submitted, %d after parse and dedupe",
		batch.ID, len(batch.Files), len(items))

	if err := r.checkExisting(items, report); err != nil {
		log.Printf("[resolver] batch %s: existence check: %v", batch.ID, err)
		report.HadErrors = true
	}
	r.persistFileRecords(items, report)
	r.fetchDetails(ctx, items)
	r.persistDetails(items, report)
	r.fetchAndPersistPosters(ctx, items, report)
	r.linkCategories(items, batch.CategoryIDs, report)

	for _, it := range items {
		switch {
		case it.detail != nil:
			report.Successes = append(report.Successes, models.ResolvedFile{
				FileName: it.parsed.FileName,
				Title:    it.parsed.Title,
				ImdbID:   it.detail.ImdbID,
			})
		case it.failure != nil:
			report.Failures = append(report.Failures, *it.failure)
		default:
			// Should not happen; keep the partition total anyway.
			it.fail(models.FailureTransport, "unresolved")
			report.Failures = append(report.Failures, *it.failure)
			report.HadErrors = true
		}
	}

	if err := r.state.ReloadIfCurrent(batch.Generation); err != nil {
		log.Printf("[resolver] batch %s: reload: %v", batch.ID, err)
		report.HadErrors = true
	}

	log.Printf("[resolver] batch %s: %d resolved, %d failed", batch.ID,
		len(report.Successes), len(report.Failures))
	return report
}

// Identify adds a single movie by its IMDB ID, the tail of the manual
// match flow (search, pick a candidate, resolve its ID). The movie is
// tagged with the Searched system category and the library reloads
// immediately; no batch bookkeeping applies.
func (r *Resolver) Identify(ctx context.Context, imdbID string) (*models.MovieDetail, error) {
	detail, err := r.details.ByIMDBID(ctx, imdbID)
	if err != nil {
		return nil, err
	}
	if err := r.movieRepo.Create(detail); err != nil {
		return nil, fmt.Errorf("persist details: %w", err)
	}

	if detail.PosterURL != "" {
		if has, err := r.posterRepo.Exists(detail.ImdbID); err == nil && !has {
			if err := r.storePoster(ctx, detail); err != nil {
				log.Printf("[resolver] poster %s: %v", detail.ImdbID, err)
			}
		}
	}

	searched, err := r.categoryRepo.GetByName(models.CategorySearched)
	if err == nil && searched != nil {
		if err := r.categoryRepo.Link(detail.ImdbID, searched.ID); err != nil {
			log.Printf("[resolver] link %s to searched: %v", detail.ImdbID, err)
		}
	}

	if err := r.state.Reload(); err != nil {
		return detail, fmt.Errorf("reload: %w", err)
	}
	return detail, nil
}

// storePoster fetches, compresses, and stores one poster. The detail
// record stands whatever happens here.
func (r *Resolver) storePoster(ctx context.Context, detail *models.MovieDetail) error {
	data, mime, err := r.images.Fetch(ctx, detail.PosterURL)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	compressed, outMime, err := r.processor.Compress(data, mime)
	if err != nil {
		return fmt.Errorf("compress: %w", err)
	}
	p := &models.Poster{
		ImdbID: detail.ImdbID,
		Title:  detail.Title,
		URL:    detail.PosterURL,
		Mime:   outMime,
		Image:  compressed,
	}
	if err := r.posterRepo.Create(p); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	return nil
}

// parseAndDedupe parses the submitted names in order and keeps the first
// occurrence of each title, case-insensitively. Non-video names are dropped
// silently.
func (r *Resolver) parseAndDedupe(files []string) []*item {
	seen := make(map[string]bool)
	var items []*item
	for _, name := range files {
		p, ok := scanner.Parse(name)
		if !ok {
			continue
		}
		key := strings.ToLower(p.Title)
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, &item{parsed: p})
	}
	return items
}

// checkExisting partitions items into already-known files and new ones.
// A known file keeps its stored detail record for the success report; a
// known file whose detail is gone is reported as not found.
func (r *Resolver) checkExisting(items []*item, report *models.ResolveReport) error {
	var firstErr error
	for _, it := range items {
		exists, err := r.fileRepo.Exists(it.parsed.FileName)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if !exists {
			continue
		}
		it.preexisting = true
		detail, err := r.movieRepo.GetByTitle(it.parsed.Title)
		if err != nil {
			log.Printf("[resolver] lookup by title %q: %v", it.parsed.Title, err)
			report.HadErrors = true
		}
		if detail != nil {
			it.detail = detail
			it.persisted = true
		} else {
			it.fail(models.FailureNotFound, "file known but no stored details")
		}
	}
	return firstErr
}

// persistFileRecords inserts the new file records. Best effort: an insert
// failure is logged and the item still proceeds to the fetch steps.
func (r *Resolver) persistFileRecords(items []*item, report *models.ResolveReport) {
	for _, it := range items {
		if it.preexisting {
			continue
		}
		rec := &models.FileRecord{
			FileName: it.parsed.FileName,
			Title:    it.parsed.Title,
			Year:     it.parsed.Year,
		}
		if err := r.fileRepo.Create(rec); err != nil {
			log.Printf("[resolver] persist file record %q: %v", it.parsed.FileName, err)
			report.HadErrors = true
		}
	}
}

// fetchDetails queries the detail provider for every new item. Calls run
// concurrently up to the fan-out limit; every outcome is recorded per item
// and no failure stops a sibling.
func (r *Resolver) fetchDetails(ctx context.Context, items []*item) {
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for _, it := range items {
		if it.preexisting || it.failure != nil {
			continue
		}
		it := it
		g.Go(func() error {
			detail, err := r.details.ByTitle(ctx, it.parsed.Title, it.parsed.Year)
			switch {
			case errors.Is(err, metadata.ErrNotFound):
				it.fail(models.FailureNotFound, err.Error())
			case err != nil:
				it.fail(models.FailureTransport, err.Error())
			default:
				it.detail = detail
			}
			return nil
		})
	}
	g.Wait()
}

// persistDetails stores the fetched detail records. A store failure demotes
// the item to the failure partition.
func (r *Resolver) persistDetails(items []*item, report *models.ResolveReport) {
	for _, it := range items {
		if it.detail == nil || it.persisted {
			continue
		}
		if err := r.movieRepo.Create(it.detail); err != nil {
			log.Printf("[resolver] persist details %s: %v", it.detail.ImdbID, err)
			it.detail = nil
			it.fail(models.FailurePersist, err.Error())
			report.HadErrors = true
			continue
		}
		it.persisted = true
	}
}

// fetchAndPersistPosters downloads, compresses, and stores the poster for
// every persisted detail that carries a poster reference and has none
// stored yet. Poster failures are logged but never demote the movie; the
// detail record is already in place.
func (r *Resolver) fetchAndPersistPosters(ctx context.Context, items []*item, report *models.ResolveReport) {
	var failed atomic.Bool
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for _, it := range items {
		if it.detail == nil || it.detail.PosterURL == "" {
			continue
		}
		it := it
		g.Go(func() error {
			has, err := r.posterRepo.Exists(it.detail.ImdbID)
			if err != nil || has {
				return nil
			}
			if err := r.storePoster(ctx, it.detail); err != nil {
				log.Printf("[resolver] poster %s: %v", it.detail.ImdbID, err)
				failed.Store(true)
			}
			return nil
		})
	}
	g.Wait()
	if failed.Load() {
		report.HadErrors = true
	}
}

// linkCategories tags every resolved movie, pre-existing matches included,
// with all the caller-supplied categories. Linking is idempotent.
func (r *Resolver) linkCategories(items []*item, categoryIDs []uuid.UUID, report *models.ResolveReport) {
	if len(categoryIDs) == 0 {
		return
	}
	for _, it := range items {
		if it.detail == nil {
			continue
		}
		for _, catID := range categoryIDs {
			if err := r.categoryRepo.Link(it.detail.ImdbID, catID); err != nil {
				log.Printf("[resolver] link %s to %s: %v", it.detail.ImdbID, catID, err)
				report.HadErrors = true
			}
		}
	}
}
