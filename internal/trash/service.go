package trash

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ledgerdesk/ledgerdesk/internal/observability"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

// Service restores archived records. Snapshots decode leniently: fields a
// snapshot never carried come back as zero values, they never fail a restore.
type Service struct {
	repo    Repository
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo Repository, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{repo: repo, metrics: metrics, logger: logger}
}

// List returns trash records, newest first.
func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Record, int, error) {
	return s.repo.List(ctx, filters)
}

// Get returns one trash record by kind and original id.
func (s *Service) Get(ctx context.Context, kind Kind, naturalID string) (Record, error) {
	if !kind.Valid() {
		return Record{}, fmt.Errorf("%w: unknown trash kind %q", shared.ErrValidation, kind)
	}
	return s.repo.Get(ctx, kind, naturalID)
}

// Restore rebuilds the original live row(s) from the snapshot and removes the
// trash record, atomically. The first concurrent restorer wins; later ones
// get NotFound.
func (s *Service) Restore(ctx context.Context, kind Kind, naturalID string) (Record, error) {
	if !kind.Valid() {
		return Record{}, fmt.Errorf("%w: unknown trash kind %q", shared.ErrValidation, kind)
	}
	rec, err := s.repo.Get(ctx, kind, naturalID)
	if err != nil {
		return Record{}, err
	}

	switch kind {
	case KindBank:
		var snap BankSnapshot
		if err := json.Unmarshal(rec.Snapshot, &snap); err != nil {
			return Record{}, fmt.Errorf("trash: decode bank snapshot %s: %w", naturalID, err)
		}
		err = s.repo.RestoreBank(ctx, rec, snap)
	case KindWebsite:
		var snap WebsiteSnapshot
		if err := json.Unmarshal(rec.Snapshot, &snap); err != nil {
			return Record{}, fmt.Errorf("trash: decode website snapshot %s: %w", naturalID, err)
		}
		err = s.repo.RestoreWebsite(ctx, rec, snap)
	case KindIntroducer:
		var snap IntroducerSnapshot
		if err := json.Unmarshal(rec.Snapshot, &snap); err != nil {
			return Record{}, fmt.Errorf("trash: decode introducer snapshot %s: %w", naturalID, err)
		}
		err = s.repo.RestoreIntroducer(ctx, rec, snap)
	case KindTransaction:
		var snap TransactionSnapshot
		if err := json.Unmarshal(rec.Snapshot, &snap); err != nil {
			return Record{}, fmt.Errorf("trash: decode transaction snapshot %s: %w", naturalID, err)
		}
		err = s.repo.RestoreTransaction(ctx, rec, snap)
	}
	if err != nil {
		return Record{}, err
	}

	s.metrics.CountRestore()
	s.logger.Info("restored from trash", slog.String("kind", string(kind)), slog.String("id", naturalID))
	return rec, nil
}
