package maintenance

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tidytask/tidytask/internal/database"
	"github.com/tidytask/tidytask/internal/logger"
)

const auditRetention = 30 * 24 * time.Hour

// Scheduler runs periodic housekeeping: audit log retention and WAL
// compaction. Jobs run in-process on the cron goroutine.
type Scheduler struct {
	cron *cron.Cron
	db   *database.DB
}

func New(db *database.DB) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		db:   db,
	}
}

func (s *Scheduler) Start() error {
	// Nightly at 03:10 local time.
	if _, err := s.cron.AddFunc("10 3 * * *", s.runHousekeeping); err != nil {
		return err
	}
	s.cron.Start()
	logger.Info("Maintenance scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runHousekeeping() {
	pruned, err := s.db.PruneAuditLogs(auditRetention)
	if err != nil {
		logger.Warn("Audit log prune failed: %v", err)
	} else if pruned > 0 {
		logger.Info("Pruned %d audit log entries", pruned)
	}

	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		logger.Warn("WAL checkpoint failed: %v", err)
	}
}
