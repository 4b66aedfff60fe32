package service

import (
	"github.com/deppfellow/maintenance-ledger/internal/lib/job"
	"github.com/deppfellow/maintenance-ledger/internal/repository"
	"github.com/deppfellow/maintenance-ledger/internal/server"
)

type Services struct {
	Ledger *LedgerService
	Job    *job.JobService
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	var notifier Notifier
	if s.Job != nil {
		notifier = s.Job
	}

	return &Services{
		Ledger: NewLedgerService(s, repos.Ledger, notifier),
		Job:    s.Job,
	}, nil
}
