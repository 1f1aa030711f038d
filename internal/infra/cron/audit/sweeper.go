package audit

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/ghxstship/recordguard/internal/config"
	"github.com/ghxstship/recordguard/internal/domain/audit"
	"github.com/ghxstship/recordguard/internal/domain/tracing"
)

// Sweeper periodically drops audit data that has aged out of retention.
type Sweeper interface {
	// Start registers the sweep job and starts the internal cron.
	// Returns an error if the configured schedule cannot be parsed.
	Start() error

	// Stop halts the internal cron. Does not interrupt a sweep that is
	// already running.
	Stop()
}

type sweeperImpl struct {
	cron *cron.Cron

	janitor audit.Janitor

	retention config.AuditRetention

	tracer tracing.Tracer

	mu sync.Mutex

	getUTC func() time.Time
}

// Returns the default implementation of a Sweeper that delegates to
// the standard robfig/cron
func NewSweeper(janitor audit.Janitor, retention config.AuditRetention, tracer tracing.Tracer) Sweeper {
	return &sweeperImpl{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		janitor:   janitor,
		retention: retention,
		tracer:    tracer,
		mu:        sync.Mutex{},
		getUTC: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (i *sweeperImpl) Start() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if log.Info().Enabled() {
		log.Info().
			Str("schedule", i.retention.Schedule).
			Uint("keepMonths", i.retention.KeepMonths).
			Msg("Scheduling audit retention sweep to Cron")
	}

	cronJob := cron.NewChain(
		cron.Recover(zeroLogCronLogger{}),
		cron.DelayIfStillRunning(zeroLogCronLogger{}),
	).Then(cron.FuncJob(func() {
		tx := i.tracer.BackgroundTx("audit-retention-sweep")
		ctx := tx.Context()
		if err := i.janitor.SweepExpired(ctx, i.getUTC()); err != nil {
			log.Error().
				Err(err).
				Uint("keepMonths", i.retention.KeepMonths).
				Msg("Failed to sweep expired audit entries")
		}
		tx.End()
	}))

	if _, err := i.cron.AddJob(i.retention.Schedule, cronJob); err != nil {
		return err
	}
	i.cron.Start()
	return nil
}

func (i *sweeperImpl) Stop() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.cron.Stop()
}

type zeroLogCronLogger struct {
}

func (z zeroLogCronLogger) Info(msg string, keysAndValues ...interface{}) {
	if log.Info().Enabled() {
		formatted := formatTimeValues(keysAndValues)
		log.Info().Fields(formatted).Msg(msg)
	}
}

func (z zeroLogCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	if log.Error().Enabled() {
		formatted := formatTimeValues(keysAndValues)
		log.Error().Err(err).Fields(formatted).Msg(msg)
	}
}

// formatTimeValues formats any time.Time values as RFC3339 *and*
// returns the even-odd idx key-value pair slice as a map
func formatTimeValues(keysAndValues []interface{}) map[string]interface{} {
	formattedArgs := make(map[string]interface{}, len(keysAndValues)/2)
	for idx := 0; idx < len(keysAndValues); idx += 2 {
		var key string
		if s, ok := keysAndValues[idx].(string); ok {
			key = s
		} else {
			key = fmt.Sprint(keysAndValues[idx])
		}
		valueIdx := idx + 1
		if len(keysAndValues) > valueIdx {
			value := keysAndValues[valueIdx]
			if t, ok := value.(time.Time); ok {
				value = t.Format(time.RFC3339)
			}
			formattedArgs[key] = value
		}
	}
	return formattedArgs
}
