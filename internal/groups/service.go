package groups

import (
	"context"

	"github.com/leozw/vitals-guardian/internal/metrics"
	"github.com/leozw/vitals-guardian/internal/storage"
	"go.uber.org/zap"
)

// Service builds domain summaries from the store and exports them as metrics.
type Service struct {
	store   *storage.Store
	logger  *zap.Logger
	metrics *metrics.Collector
}

func NewService(store *storage.Store, logger *zap.Logger, metrics *metrics.Collector) *Service {
	return &Service{
		store:   store,
		logger:  logger,
		metrics: metrics,
	}
}

// Summaries returns every domain group in display order.
func (s *Service) Summaries(ctx context.Context) []*DomainGroup {
	list := s.store.Targets(ctx)
	groups := GroupByDomain(list, s.store.LatestByTarget(ctx, list))

	sorted := SortedDomains(groups)
	for _, g := range sorted {
		s.recordGroupMetrics(g)
	}

	s.logger.Debug("Domain summaries built",
		zap.Int("targets", len(list)),
		zap.Int("domains", len(sorted)),
	)
	return sorted
}

func (s *Service) recordGroupMetrics(g *DomainGroup) {
	if g.AggregatedMetrics == nil {
		return
	}
	for m, v := range g.AggregatedMetrics {
		s.metrics.RecordDomainMetric(g.Domain, string(m), v)
	}
}
