package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Verdict is a judge's call on one submitted solution.
type Verdict int

const (
	// VerdictUnknown means the judge could not produce a usable answer.
	// Callers treat it as incorrect so a judge outage never awards marks.
	VerdictUnknown Verdict = iota
	VerdictIncorrect
	VerdictCorrect
)

// CorrectnessJudge decides whether a submitted solution fixes the given
// buggy program. Implementations must be safe for concurrent use.
type CorrectnessJudge interface {
	Judge(ctx context.Context, language, problem, buggy, solution string) (Verdict, error)
}

// CohereJudge asks the Cohere chat API for a binary correctness call and
// parses the "isCorrect: N" marker out of the reply text. Responses that
// carry no marker, and transport failures after one retry, come back as
// VerdictUnknown.
type CohereJudge struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// NewCohereJudge builds a judge against the Cohere chat endpoint.
func NewCohereJudge(baseURL, apiKey, model string, timeout time.Duration) *CohereJudge {
	return &CohereJudge{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
	}
}

const judgePromptTemplate = `You are reviewing a debugging exercise. The participant was shown a buggy %s program and asked to fix it.

Problem statement:
%s

Buggy program:
%s

Participant's fix:
%s

Does the participant's fix resolve the bug and satisfy the problem statement? Reply with exactly one line of the form "isCorrect: 1" if it does or "isCorrect: 0" if it does not.`

var verdictPattern = regexp.MustCompile(`isCorrect:\s*(\d+)`)

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
}

// Judge implements CorrectnessJudge. One transient failure is retried once
// before giving up with VerdictUnknown.
func (j *CohereJudge) Judge(ctx context.Context, language, problem, buggy, solution string) (Verdict, error) {
	prompt := fmt.Sprintf(judgePromptTemplate, language, problem, buggy, solution)

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		verdict, err := j.ask(ctx, prompt)
		if err == nil {
			return verdict, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt+1).Msg("judge request failed")
	}
	return VerdictUnknown, lastErr
}

func (j *CohereJudge) ask(ctx context.Context, prompt string) (Verdict, error) {
	body, err := json.Marshal(chatRequest{
		Model:    j.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return VerdictUnknown, fmt.Errorf("marshal judge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.baseURL+"/v2/chat", bytes.NewReader(body))
	if err != nil {
		return VerdictUnknown, fmt.Errorf("build judge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+j.apiKey)

	resp, err := j.client.Do(req)
	if err != nil {
		return VerdictUnknown, fmt.Errorf("call judge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return VerdictUnknown, fmt.Errorf("judge returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return VerdictUnknown, fmt.Errorf("decode judge response: %w", err)
	}

	var text strings.Builder
	for _, part := range parsed.Message.Content {
		if part.Type == "text" {
			text.WriteString(part.Text)
		}
	}
	return parseVerdict(text.String()), nil
}

// parseVerdict extracts the binary marker from the judge's reply. Anything
// other than an explicit 1 is treated as incorrect; a missing marker is
// unknown.
func parseVerdict(text string) Verdict {
	m := verdictPattern.FindStringSubmatch(text)
	if m == nil {
		return VerdictUnknown
	}
	if m[1] == "1" {
		return VerdictCorrect
	}
	return VerdictIncorrect
}
