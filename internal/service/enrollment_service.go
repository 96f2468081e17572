package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spardha-tech/spardha-backend/internal/model"
	"github.com/spardha-tech/spardha-backend/internal/notify"
	"github.com/spardha-tech/spardha-backend/internal/repository"
)

// ErrNotEnrolled is returned when a participant acts on a quiz they have not
// enrolled in.
var ErrNotEnrolled = errors.New("participant is not enrolled in this quiz")

// EnrollmentService handles enrollment, entry tokens, and the attempt ledger.
type EnrollmentService struct {
	enrollmentRepo  *repository.EnrollmentRepository
	quizRepo        *repository.QuizRepository
	participantRepo *repository.ParticipantRepository
	mailer          *notify.Mailer
}

// NewEnrollmentService creates a new EnrollmentService.
func NewEnrollmentService(
	enrollmentRepo *repository.EnrollmentRepository,
	quizRepo *repository.QuizRepository,
	participantRepo *repository.ParticipantRepository,
	mailer *notify.Mailer,
) *EnrollmentService {
	return &EnrollmentService{
		enrollmentRepo:  enrollmentRepo,
		quizRepo:        quizRepo,
		participantRepo: participantRepo,
		mailer:          mailer,
	}
}

// Enroll registers a participant for a quiz and mails them their entry
// token. Enrolling twice returns the existing enrollment unchanged, so the
// ledger row stays unique per (participant, quiz).
func (s *EnrollmentService) Enroll(ctx context.Context, participantID int, quizID uuid.UUID) (*model.Enrollment, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	participant, err := s.participantRepo.GetByID(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}

	e := &model.Enrollment{
		ParticipantID: participantID,
		QuizID:        quizID,
		Competition:   quiz.Competition,
		EntryToken:    buildEntryToken(participant),
	}

	created, err := s.enrollmentRepo.Create(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("create enrollment: %w", err)
	}

	if created {
		// The token mail is best effort: a mail outage must not block the
		// participant from competing.
		if err := s.mailer.SendEnrollmentToken(participant.Email, participant.Name, quiz.Title, e.EntryToken); err != nil {
			log.Warn().Err(err).Int("participant_id", participantID).Msg("failed to mail entry token")
		}
	}
	return e, nil
}

// Get retrieves a participant's enrollment for one quiz.
func (s *EnrollmentService) Get(ctx context.Context, participantID int, quizID uuid.UUID) (*model.Enrollment, error) {
	return s.enrollmentRepo.GetByParticipantAndQuiz(ctx, participantID, quizID)
}

// ListForParticipant retrieves a participant's enrollments in a competition.
func (s *EnrollmentService) ListForParticipant(ctx context.Context, participantID int, competition string) ([]model.Enrollment, error) {
	if !model.ValidCompetition(competition) {
		return nil, ErrUnknownCompetition
	}
	return s.enrollmentRepo.ListByParticipant(ctx, participantID, model.Competition(competition))
}

// entryWords is the pool of human-readable token suffixes. A memorable word
// beats a hex blob when a volunteer reads tokens off phones at the venue door.
var entryWords = []string{
	"falcon", "nebula", "quartz", "ember", "cipher", "vertex",
	"zephyr", "cobalt", "raptor", "lumen", "onyx", "pixel",
}

// buildEntryToken derives a venue check-in token from the participant's
// identity plus a random word and fragment. The token is not a security
// boundary; it only has to be unique enough for a check-in desk.
func buildEntryToken(p *model.Participant) string {
	name := strings.ToLower(strings.ReplaceAll(p.Name, " ", ""))
	if len(name) > 4 {
		name = name[:4]
	}

	word := entryWords[int(uuid.New().ID())%len(entryWords)]
	fragment := strings.Split(uuid.New().String(), "-")[0][:4]

	return fmt.Sprintf("%s-%s-%s-%s", name, enrollmentFragment(p), word, fragment)
}

func enrollmentFragment(p *model.Participant) string {
	if p.EnrollmentNumber != nil && len(*p.EnrollmentNumber) >= 4 {
		n := *p.EnrollmentNumber
		return strings.ToLower(n[len(n)-4:])
	}
	return fmt.Sprintf("%04d", p.ID%10000)
}
