package ingestion

import (
	"errors"

	"revpipe/internal/ports"
)

// Service applies review and report batches to the catalog store. Each
// incoming message is one batch and one transaction: either every item in
// the message lands or none do, which keeps redelivery of a failed message
// safe.
type Service struct {
	repo ports.CatalogRepository
	uow  ports.UnitOfWork
}

func NewService(repo ports.CatalogRepository, uow ports.UnitOfWork) *Service {
	return &Service{
		repo: repo,
		uow:  uow,
	}
}

func (s *Service) check() error {
	if s.repo == nil {
		return errors.New("catalog repository is required")
	}
	if s.uow == nil {
		return errors.New("unit of work is required")
	}
	return nil
}
