package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"rental-booking/internal/data/entity"
	"rental-booking/pkg/utils"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const jobName = "expire-lapsed-holds"

// HoldFinder lists unpaid bookings whose hold deadline has passed, in
// (deadline, id) order starting past after.
type HoldFinder interface {
	FindExpiredHolds(ctx context.Context, now time.Time, after *entity.HoldCursor, limit int) ([]*entity.Booking, error)
}

// Expirer releases a single booking in its own transaction.
type Expirer interface {
	Expire(ctx context.Context, bookingID uuid.UUID) (bool, error)
}

// Summary describes one sweep.
type Summary struct {
	Scanned int
	Expired int
	Skipped int
	Failed  int
}

type Sweeper struct {
	finder  HoldFinder
	expirer Expirer
	config  utils.SweeperConfig
	locker  gocron.Locker
	log     *zap.Logger
	now     func() time.Time

	mu        sync.Mutex
	scheduler gocron.Scheduler
	cancel    context.CancelFunc
}

// New builds a sweeper. locker may be nil, in which case every instance
// sweeps on its own schedule.
func New(finder HoldFinder, expirer Expirer, config utils.SweeperConfig, locker gocron.Locker, log *zap.Logger, clock func() time.Time) *Sweeper {
	if clock == nil {
		clock = time.Now
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	return &Sweeper{
		finder:  finder,
		expirer: expirer,
		config:  config,
		locker:  locker,
		log:     log.With(zap.String("component", "sweeper")),
		now:     clock,
	}
}

// Start schedules the sweep every configured interval, beginning now.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler != nil {
		return errors.New("sweeper already started")
	}
	if s.config.Interval <= 0 {
		return fmt.Errorf("invalid sweeper interval %s", s.config.Interval)
	}

	opts := []gocron.SchedulerOption{
		gocron.WithLogger(newCronLogger(s.log)),
	}
	if s.locker != nil {
		opts = append(opts, gocron.WithDistributedLocker(s.locker))
	}

	scheduler, err := gocron.NewScheduler(opts...)
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	_, err = scheduler.NewJob(
		gocron.DurationJob(s.config.Interval),
		gocron.NewTask(func() {
			if _, err := s.RunOnce(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				s.log.Error("Sweep failed", zap.Error(err))
			}
		}),
		gocron.WithName(jobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		cancel()
		_ = scheduler.Shutdown()
		return fmt.Errorf("schedule sweep: %w", err)
	}

	scheduler.Start()
	s.scheduler = scheduler
	s.cancel = cancel

	s.log.Info("Sweeper started",
		zap.Duration("interval", s.config.Interval),
		zap.Int("batch_size", s.config.BatchSize),
		zap.Bool("distributed_lock", s.locker != nil),
	)
	return nil
}

// Stop cancels an in-flight sweep and waits for it to return.
func (s *Sweeper) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler == nil {
		return nil
	}
	s.cancel()
	err := s.scheduler.Shutdown()
	s.scheduler = nil
	s.cancel = nil

	s.log.Info("Sweeper stopped")
	return err
}

// RunOnce expires every lapsed hold visible now. A booking that fails is
// logged and left for the next run; paging moves past it either way.
func (s *Sweeper) RunOnce(ctx context.Context) (Summary, error) {
	var summary Summary
	start := s.now()
	seen := make(map[uuid.UUID]struct{})

	var after *entity.HoldCursor
	for {
		holds, err := s.finder.FindExpiredHolds(ctx, start, after, s.config.BatchSize)
		if err != nil {
			return summary, fmt.Errorf("find expired holds: %w", err)
		}

		fresh := 0
		for _, b := range holds {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			if _, ok := seen[b.ID]; ok {
				continue
			}
			seen[b.ID] = struct{}{}
			fresh++
			summary.Scanned++

			expired, err := s.expirer.Expire(ctx, b.ID)
			switch {
			case err != nil:
				summary.Failed++
				s.log.Error("Failed to expire booking",
					zap.Error(err),
					zap.String("booking_id", b.ID.String()),
					zap.String("reference", b.Reference),
				)
			case expired:
				summary.Expired++
			default:
				summary.Skipped++
			}
		}

		if len(holds) < s.config.BatchSize || fresh == 0 {
			break
		}
		after = holds[len(holds)-1].HoldCursor()
		if after == nil {
			break
		}
	}

	if summary.Scanned > 0 {
		s.log.Info("Sweep finished",
			zap.Int("scanned", summary.Scanned),
			zap.Int("expired", summary.Expired),
			zap.Int("skipped", summary.Skipped),
			zap.Int("failed", summary.Failed),
			zap.Duration("took", s.now().Sub(start)),
		)
	}
	return summary, nil
}

// cronLogger routes gocron's key/value logging into zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func newCronLogger(log *zap.Logger) gocron.Logger {
	return cronLogger{log: log.Named("gocron").Sugar()}
}

func (l cronLogger) Debug(msg string, args ...any) { l.log.Debugw(msg, args...) }
func (l cronLogger) Info(msg string, args ...any)  { l.log.Infow(msg, args...) }
func (l cronLogger) Warn(msg string, args ...any)  { l.log.Warnw(msg, args...) }
func (l cronLogger) Error(msg string, args ...any) { l.log.Errorw(msg, args...) }
