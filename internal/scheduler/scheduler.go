package scheduler

import (
	"log"

	"github.com/filmshelf/filmshelf/internal/repository"
	"github.com/robfig/cron/v3"
)

// Scheduler runs the periodic store maintenance: posters, statuses, and
// category links whose movie record is gone are swept out. Orphans appear
// when a single-movie delete races a batch that was still writing.
type Scheduler struct {
	posterRepo   *repository.PosterRepository
	statusRepo   *repository.StatusRepository
	categoryRepo *repository.CategoryRepository
	cron         *cron.Cron
}

func New(posterRepo *repository.PosterRepository, statusRepo *repository.StatusRepository,
	categoryRepo *repository.CategoryRepository) *Scheduler {
	return &Scheduler{
		posterRepo:   posterRepo,
		statusRepo:   statusRepo,
		categoryRepo: categoryRepo,
		cron:         cron.New(),
	}
}

// Start schedules the nightly sweep and runs one pass immediately so a
// restart picks up anything left behind.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 4 * * *", s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	log.Println("[scheduler] orphan sweep scheduled (daily at 04:00)")
	go s.sweep()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("[scheduler] stopped")
}

func (s *Scheduler) sweep() {
	total := int64(0)
	if n, err := s.posterRepo.DeleteOrphans(); err != nil {
		log.Printf("[scheduler] poster sweep error: %v", err)
	} else {
		total += n
	}
	if n, err := s.statusRepo.DeleteOrphans(); err != nil {
		log.Printf("[scheduler] status sweep error: %v", err)
	} else {
		total += n
	}
	if n, err := s.categoryRepo.DeleteOrphanLinks(); err != nil {
		log.Printf("[scheduler] link sweep error: %v", err)
	} else {
		total += n
	}
	if total > 0 {
		log.Printf("[scheduler] swept %d orphaned records", total)
	}
}
