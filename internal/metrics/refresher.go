package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/safar/agromarket/internal/market"
)

// StatsSource loads the admin aggregates. store.AdminStats bound to a
// database satisfies it.
type StatsSource func(ctx context.Context) (market.AdminStats, error)

// Refresher recomputes the marketplace gauges on a cron schedule.
type Refresher struct {
	cron    *cron.Cron
	source  StatsSource
	log     *logrus.Logger
	timeout time.Duration
}

func NewRefresher(schedule string, loc *time.Location, source StatsSource, log *logrus.Logger) (*Refresher, error) {
	r := &Refresher{
		cron:    cron.New(cron.WithLocation(loc)),
		source:  source,
		log:     log,
		timeout: 10 * time.Second,
	}

	if _, err := r.cron.AddFunc(schedule, r.run); err != nil {
		return nil, fmt.Errorf("schedule stats refresh %q: %w", schedule, err)
	}
	return r, nil
}

func (r *Refresher) Start() {
	r.cron.Start()
}

// Stop halts scheduling and returns a context that is done once any running
// refresh has finished.
func (r *Refresher) Stop() context.Context {
	return r.cron.Stop()
}

func (r *Refresher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.Refresh(ctx); err != nil {
		statsRefreshFailures.Inc()
		r.log.WithError(err).Warn("marketplace stats refresh failed")
	}
}

// Refresh loads the aggregates once and publishes them.
func (r *Refresher) Refresh(ctx context.Context) error {
	stats, err := r.source(ctx)
	if err != nil {
		return err
	}
	SetMarketStats(stats)
	return nil
}

func SetMarketStats(stats market.AdminStats) {
	marketGauges.WithLabelValues("pending_accounts").Set(float64(stats.PendingUsers))
	marketGauges.WithLabelValues("listings").Set(float64(stats.TotalListings))
	marketGauges.WithLabelValues("orders").Set(float64(stats.TotalOrders))
	marketGauges.WithLabelValues("payments").Set(float64(stats.TotalPayments))
}
