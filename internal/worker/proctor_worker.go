package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spardha-tech/spardha-backend/internal/config"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// ProctorWorker drains the compliance-event queue into the proctor_events
// audit table. Events are written in CopyFrom batches with row-by-row
// fallback and requeue, so a database outage delays the audit trail instead
// of losing it.
type ProctorWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewProctorWorker creates a new ProctorWorker.
func NewProctorWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ProctorWorker {
	return &ProctorWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "proctor_worker").Logger(),
	}
}

type proctorEvent struct {
	ParticipantID int     `json:"participant_id"`
	QuizID        string  `json:"quiz_id"`
	EventType     string  `json:"event_type"`
	Budget        float64 `json:"budget"`
	Timestamp     int64   `json:"timestamp"` // Unix milliseconds
}

// Start runs the drain loop until the context is cancelled.
func (w *ProctorWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ProctorWorker started")

	buffer := make([]*proctorEvent, 0, BatchSize)
	lastFlush := time.Now()

	for {
		if len(buffer) > 0 {
			if len(buffer) >= BatchSize || time.Since(lastFlush) >= BatchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0]
				lastFlush = time.Now()
			}
		}

		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistProctorEventsQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue // Queue empty, loop back to check the flush timer
			}
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}

		if len(result) < 2 {
			continue
		}

		var ev proctorEvent
		if err := json.Unmarshal([]byte(result[1]), &ev); err != nil {
			// Malformed JSON cannot be retried. Log and discard.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			continue
		}
		buffer = append(buffer, &ev)
	}
}

// flushSafe attempts bulk insert, then fallback insert, then requeue.
func (w *ProctorWorker) flushSafe(ctx context.Context, batch []*proctorEvent) {
	if err := w.bulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, batch)
	}
}

func (w *ProctorWorker) bulkInsert(ctx context.Context, batch []*proctorEvent) error {
	rows := make([][]interface{}, 0, len(batch))
	for _, ev := range batch {
		quizID, err := uuid.Parse(ev.QuizID)
		if err != nil {
			// Trigger the fallback, which drops the bad row individually.
			return err
		}
		rows = append(rows, []interface{}{
			quizID, ev.ParticipantID, ev.EventType, ev.Budget, time.UnixMilli(ev.Timestamp),
		})
	}

	_, err := w.pool.CopyFrom(
		ctx,
		pgx.Identifier{"proctor_events"},
		[]string{"quiz_id", "participant_id", "event_type", "budget", "recorded_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

func (w *ProctorWorker) fallbackInsert(ctx context.Context, batch []*proctorEvent) {
	requeueList := make([]*proctorEvent, 0)

	for _, ev := range batch {
		quizID, err := uuid.Parse(ev.QuizID)
		if err != nil {
			w.log.Error().Str("quiz_id", ev.QuizID).Msg("Dropping proctor event with invalid UUID")
			continue
		}

		_, err = w.pool.Exec(ctx,
			`INSERT INTO proctor_events (quiz_id, participant_id, event_type, budget, recorded_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			quizID, ev.ParticipantID, ev.EventType, ev.Budget, time.UnixMilli(ev.Timestamp),
		)
		if err != nil {
			// Requeue anything that fails. A connection outage is the common
			// case; a duplicate audit row on retry is harmless.
			w.log.Error().Err(err).Int("participant_id", ev.ParticipantID).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, ev)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *ProctorWorker) requeue(ctx context.Context, items []*proctorEvent) {
	pipe := w.rdb.Pipeline()
	for _, ev := range items {
		data, _ := json.Marshal(ev)
		pipe.RPush(ctx, config.WorkerKey.PersistProctorEventsQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue items to Redis. Data loss occurred.")
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued failed items back to Redis")
	// Avoid thrashing while the DB is down hard.
	time.Sleep(2 * time.Second)
}

func (w *ProctorWorker) shutdown(buffer []*proctorEvent) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}
