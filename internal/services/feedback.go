package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	types "github.com/yungbote/medsim-backend/internal/domain"
	"github.com/yungbote/medsim-backend/internal/domain/chat"
	"github.com/yungbote/medsim-backend/internal/observability"
	"github.com/yungbote/medsim-backend/internal/platform/llm"
	"github.com/yungbote/medsim-backend/internal/platform/logger"
)

const (
	EvalSystemInstruction = "You are a clinical skills evaluator. Evaluate only the DOCTOR's performance based on the full transcript. " +
		"Be specific, reference concrete actions from the conversation, do not invent facts, and be concise."

	LocalFeedbackText = "Keyword-based feedback. (No evaluation model configured.)"

	evalTemp = 0.3
)

const EvalTask = `You will receive the full transcript in prior turns (doctor=role:user, patient=role:model).

Rate the DOCTOR on these six metrics using integers 0..5 (0=not attempted/very poor, 1=poor, 2=limited,
3=adequate, 4=good, 5=excellent):

- history: completeness and structure of history taking (OPQRST, pertinent positives/negatives, logical flow)
- red_flags: timely screening for red flags relevant to the case
- meds_allergies: medication history and allergies elicited with clarification
- differential: quality of differential diagnosis and brief rationale to rule-in/out
- plan: investigations and counseling/safety-netting explained appropriately
- communication: empathy, clarity, summaries, teach-back, patient-centered language

Also compute overall_score as an integer 0..100 by equally weighting the six metrics and rounding.

For EACH metric, provide:
1. A score (0-5)
2. Specific feedback (1-2 sentences) referencing what the doctor did or missed in THIS conversation

Return ONLY valid JSON with exactly these keys:

{
  "overall_feedback": "<3-6 sentence overall feedback mixing strengths and improvements>",
  "overall_score": <int 0..100>,
  "history": {
    "score": <int 0..5>,
    "feedback": "<specific feedback about history taking in this conversation>"
  },
  "red_flags": {
    "score": <int 0..5>,
    "feedback": "<specific feedback about red flag screening>"
  },
  "meds_allergies": {
    "score": <int 0..5>,
    "feedback": "<specific feedback about medication/allergy inquiry>"
  },
  "differential": {
    "score": <int 0..5>,
    "feedback": "<specific feedback about differential diagnosis>"
  },
  "plan": {
    "score": <int 0..5>,
    "feedback": "<specific feedback about management plan>"
  },
  "communication": {
    "score": <int 0..5>,
    "feedback": "<specific feedback about communication style>"
  }
}
`

// Keyword lists for local scoring. Communication also scans patient text.
var localKeywords = map[string][]string{
	chat.CategoryHistory:       {"onset", "duration", "location", "severity", "character", "radiate", "better", "worse", "timeline"},
	chat.CategoryRedFlags:      {"fever", "weight loss", "bleeding", "faint", "chest pain", "short of breath", "neurologic"},
	chat.CategoryMedsAllergies: {"medication", "drug", "allergy", "penicillin", "dose"},
	chat.CategoryDifferential:  {"could be", "differential", "rule out", "consider", "likely"},
	chat.CategoryPlan:          {"test", "lab", "x-ray", "antibiotic", "ibuprofen", "return", "follow up", "hydration", "rest"},
	chat.CategoryCommunication: {"understand", "clarify", "explain", "summarize", "teach back"},
}

// FeedbackAggregator turns a thread's ordered messages into a rubric. It never fails:
// model errors degrade to the fallback rubric.
type FeedbackAggregator interface {
	Aggregate(ctx context.Context, messages []*types.Message) (types.Rubric, types.FeedbackSource)
}

type feedbackAggregator struct {
	log   *logger.Logger
	model llm.Client
}

// NewFeedbackAggregator scores with model when non-nil, otherwise with local keyword matching.
func NewFeedbackAggregator(log *logger.Logger, model llm.Client) FeedbackAggregator {
	return &feedbackAggregator{log: log.With("service", "FeedbackAggregator"), model: model}
}

func (fa *feedbackAggregator) Aggregate(ctx context.Context, messages []*types.Message) (types.Rubric, types.FeedbackSource) {
	var (
		r      types.Rubric
		source types.FeedbackSource
	)
	if fa.model == nil {
		r, source = LocalRubric(messages), types.FeedbackFromLocal
	} else {
		var err error
		r, err = fa.modelRubric(ctx, messages)
		source = types.FeedbackFromModel
		if err != nil {
			fa.log.Warn("Model feedback unavailable, using fallback rubric", "provider", fa.model.Provider(), "error", err)
			r, source = types.FallbackRubric(), types.FeedbackFromFallback
		}
	}
	r.Clamp()
	observability.Current().IncFeedbackSource(string(source))
	return r, source
}

func (fa *feedbackAggregator) modelRubric(ctx context.Context, messages []*types.Message) (types.Rubric, error) {
	turns := make([]llm.Turn, 0, len(messages)+1)
	for _, m := range messages {
		role := llm.RoleModel
		if m.Role == types.RoleDoctor {
			role = llm.RoleUser
		}
		turns = append(turns, llm.Turn{Role: role, Text: m.Content})
	}
	turns = append(turns, llm.Turn{Role: llm.RoleUser, Text: EvalTask})

	raw, err := fa.model.Generate(ctx, llm.Request{
		System:      EvalSystemInstruction,
		Turns:       turns,
		Temperature: evalTemp,
		JSON:        true,
	})
	if err != nil {
		return types.Rubric{}, err
	}
	return ParseModelRubric(raw)
}

// ParseModelRubric validates the evaluator's JSON and maps it to the nested rubric.
// Every key is required; scores may be JSON numbers or integer strings and are
// truncated toward zero, then clamped.
func ParseModelRubric(raw string) (types.Rubric, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &doc); err != nil {
		return types.Rubric{}, fmt.Errorf("decode evaluation: %w", err)
	}
	for _, k := range []string{"overall_feedback", "overall_score"} {
		if _, ok := doc[k]; !ok {
			return types.Rubric{}, fmt.Errorf("missing key: %s", k)
		}
	}
	for _, c := range chat.Categories {
		if _, ok := doc[c.ID]; !ok {
			return types.Rubric{}, fmt.Errorf("missing key: %s", c.ID)
		}
	}

	var summary string
	if err := json.Unmarshal(doc["overall_feedback"], &summary); err != nil {
		return types.Rubric{}, fmt.Errorf("overall_feedback: %w", err)
	}
	overall, err := parseScore(doc["overall_score"], chat.MaxOverallScore)
	if err != nil {
		return types.Rubric{}, fmt.Errorf("overall_score: %w", err)
	}

	r := types.Rubric{
		FeedbackText: summary,
		OverallScore: overall,
		Sections:     make(map[string]types.Section, len(chat.Categories)),
	}
	for _, c := range chat.Categories {
		var sec map[string]json.RawMessage
		if err := json.Unmarshal(doc[c.ID], &sec); err != nil || sec == nil {
			return types.Rubric{}, fmt.Errorf("invalid structure for %s", c.ID)
		}
		rawScore, hasScore := sec["score"]
		rawFeedback, hasFeedback := sec["feedback"]
		if !hasScore || !hasFeedback {
			return types.Rubric{}, fmt.Errorf("invalid structure for %s", c.ID)
		}
		score, err := parseScore(rawScore, chat.MaxSectionScore)
		if err != nil {
			return types.Rubric{}, fmt.Errorf("%s.score: %w", c.ID, err)
		}
		var text string
		if err := json.Unmarshal(rawFeedback, &text); err != nil {
			return types.Rubric{}, fmt.Errorf("%s.feedback: %w", c.ID, err)
		}
		r.Sections[c.ID] = types.Section{Title: c.Title, Score: score, Feedback: text}
	}
	return r, nil
}

func parseScore(raw json.RawMessage, hi int) (int, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, err
	}
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", t)
		}
		f = float64(n)
	default:
		return 0, fmt.Errorf("not a number: %s", string(raw))
	}
	f = math.Max(0, math.Min(float64(hi), f))
	return int(math.Trunc(f)), nil
}

// LocalRubric scores each category by keyword hits, capped at the section maximum.
// overall = round(sum/30*100).
func LocalRubric(messages []*types.Message) types.Rubric {
	var doctor, patient []string
	for _, m := range messages {
		if m.Role == types.RoleDoctor {
			doctor = append(doctor, m.Content)
		} else {
			patient = append(patient, m.Content)
		}
	}
	doctorText := strings.ToLower(strings.Join(doctor, " "))
	allText := strings.ToLower(strings.Join(append(append([]string{}, doctor...), patient...), " "))

	r := types.Rubric{
		FeedbackText: LocalFeedbackText,
		Sections:     make(map[string]types.Section, len(chat.Categories)),
	}
	sum := 0
	for _, c := range chat.Categories {
		text := doctorText
		if c.ID == chat.CategoryCommunication {
			text = allText
		}
		score := chat.ClampSection(keywordHits(text, localKeywords[c.ID]))
		sum += score
		r.Sections[c.ID] = types.Section{Title: c.Title, Score: score, Feedback: c.Hint}
	}
	maxSum := float64(chat.MaxSectionScore * len(chat.Categories))
	r.OverallScore = chat.ClampOverall(int(math.Round(float64(sum) / maxSum * 100)))
	return r
}

func keywordHits(text string, keywords []string) int {
	hits := 0
	for _, k := range keywords {
		if strings.Contains(text, k) {
			hits++
		}
	}
	return hits
}
