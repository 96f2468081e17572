package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spardha-tech/spardha-backend/internal/config"
	"github.com/spardha-tech/spardha-backend/internal/model"
)

const (
	SubmissionBatchSize    = 50
	SubmissionBatchTimeout = 2 * time.Second
	SubmissionPollTimeout  = 1 * time.Second
)

// SubmissionWorker drains the submission queue into the submissions table.
// The insert carries ON CONFLICT DO NOTHING on (participant, quiz, attempt),
// so a requeued batch replayed after a partial failure cannot double-write
// an attempt.
type SubmissionWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewSubmissionWorker creates a new SubmissionWorker.
func NewSubmissionWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *SubmissionWorker {
	return &SubmissionWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "submission_worker").Logger(),
	}
}

// Start runs the drain loop until the context is cancelled.
func (w *SubmissionWorker) Start(ctx context.Context) {
	w.log.Info().Msg("SubmissionWorker started")

	batch := make([]*model.Submission, 0, SubmissionBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= SubmissionBatchSize || time.Since(lastFlush) >= SubmissionBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, SubmissionPollTimeout, config.WorkerKey.PersistSubmissionsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			var sub model.Submission
			if err := json.Unmarshal([]byte(item[1]), &sub); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}
			batch = append(batch, &sub)
		}
	}
}

func (w *SubmissionWorker) flushSafe(ctx context.Context, batch []*model.Submission) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk submission insert failed, using fallback")

		for _, sub := range batch {
			if err := w.persistSingle(ctx, sub); err != nil {
				w.log.Error().Err(err).Int("participant_id", sub.ParticipantID).Msg("persistSingle failed, requeueing")
				raw, _ := json.Marshal(sub)
				w.rdb.RPush(ctx, config.WorkerKey.PersistSubmissionsQueue, raw)
			}
		}
		return
	}

	// Persisted submissions no longer need their autosave buffers.
	w.bulkClearAutosaves(ctx, batch)
}

// bulkInsert writes the whole batch in one statement using zipped UNNEST
// arrays. JSON columns travel as text and are cast on the server.
func (w *SubmissionWorker) bulkInsert(ctx context.Context, batch []*model.Submission) error {
	n := len(batch)

	participantIDs := make([]int, 0, n)
	quizIDs := make([]uuid.UUID, 0, n)
	competitions := make([]string, 0, n)
	languages := make([]string, 0, n)
	answers := make([]*string, 0, n)
	solutions := make([]*string, 0, n)
	pageHTMLs := make([]string, 0, n)
	reviews := make([]*string, 0, n)
	scores := make([]float64, 0, n)
	timeSpents := make([]float64, 0, n)
	attemptCounts := make([]int, 0, n)
	reasons := make([]string, 0, n)
	isScoreds := make([]bool, 0, n)
	pageIDs := make([]*string, 0, n)
	submittedAts := make([]time.Time, 0, n)

	for _, sub := range batch {
		participantIDs = append(participantIDs, sub.ParticipantID)
		quizIDs = append(quizIDs, sub.QuizID)
		competitions = append(competitions, string(sub.Competition))
		languages = append(languages, sub.Language)
		answers = append(answers, marshalJSONText(sub.Answers != nil, sub.Answers))
		solutions = append(solutions, marshalJSONText(sub.Solutions != nil, sub.Solutions))
		pageHTMLs = append(pageHTMLs, sub.PageHTML)
		reviews = append(reviews, marshalJSONText(sub.Reviews != nil, sub.Reviews))
		scores = append(scores, sub.Score)
		timeSpents = append(timeSpents, sub.TimeSpent)
		attemptCounts = append(attemptCounts, sub.AttemptCount)
		reasons = append(reasons, string(sub.Reason))
		isScoreds = append(isScoreds, sub.IsScored)
		if sub.PageID != nil {
			id := sub.PageID.String()
			pageIDs = append(pageIDs, &id)
		} else {
			pageIDs = append(pageIDs, nil)
		}
		submittedAts = append(submittedAts, sub.SubmittedAt)
	}

	query := `
		INSERT INTO submissions (participant_id, quiz_id, competition, language, answers,
			solutions, page_html, reviews, score, time_spent, attempt_count, reason, is_scored, page_id, submitted_at)
		SELECT u.participant_id, u.quiz_id, u.competition, u.language, u.answers::jsonb,
			u.solutions::jsonb, u.page_html, u.reviews::jsonb, u.score, u.time_spent,
			u.attempt_count, u.reason, u.is_scored, u.page_id::uuid, u.submitted_at
		FROM UNNEST(
			$1::int[], $2::uuid[], $3::text[], $4::text[], $5::text[],
			$6::text[], $7::text[], $8::text[], $9::float8[], $10::float8[],
			$11::int[], $12::text[], $13::bool[], $14::text[], $15::timestamptz[]
		) AS u(participant_id, quiz_id, competition, language, answers,
			solutions, page_html, reviews, score, time_spent,
			attempt_count, reason, is_scored, page_id, submitted_at)
		ON CONFLICT (participant_id, quiz_id, attempt_count) DO NOTHING`

	_, err := w.pool.Exec(ctx, query,
		participantIDs, quizIDs, competitions, languages, answers,
		solutions, pageHTMLs, reviews, scores, timeSpents,
		attemptCounts, reasons, isScoreds, pageIDs, submittedAts)
	return err
}

func (w *SubmissionWorker) persistSingle(ctx context.Context, sub *model.Submission) error {
	_, err := w.pool.Exec(ctx,
		`INSERT INTO submissions (participant_id, quiz_id, competition, language, answers,
			solutions, page_html, reviews, score, time_spent, attempt_count, reason, is_scored, page_id, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (participant_id, quiz_id, attempt_count) DO NOTHING`,
		sub.ParticipantID, sub.QuizID, sub.Competition, sub.Language, sub.Answers,
		sub.Solutions, sub.PageHTML, sub.Reviews, sub.Score, sub.TimeSpent,
		sub.AttemptCount, sub.Reason, sub.IsScored, sub.PageID, sub.SubmittedAt)
	return err
}

// bulkClearAutosaves drops the answer hashes and mirage drafts behind the
// persisted submissions.
func (w *SubmissionWorker) bulkClearAutosaves(ctx context.Context, batch []*model.Submission) {
	pipe := w.rdb.Pipeline()
	for _, sub := range batch {
		pipe.Del(ctx,
			config.CacheKey.ParticipantAnswersKey(sub.QuizID.String(), sub.ParticipantID),
			config.CacheKey.MirageDraftKey(sub.QuizID.String(), sub.ParticipantID),
		)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Warn().Err(err).Msg("failed to clear autosave buffers")
	}
}

// marshalJSONText encodes v for a nullable jsonb column.
func marshalJSONText(present bool, v interface{}) *string {
	if !present {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(raw)
	return &s
}
