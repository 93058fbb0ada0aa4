package chat

// Category is one of the six fixed rubric sections.
type Category struct {
	ID    string
	Title string
	Hint  string
}

const (
	CategoryHistory       = "history"
	CategoryRedFlags      = "red_flags"
	CategoryMedsAllergies = "meds_allergies"
	CategoryDifferential  = "differential"
	CategoryPlan          = "plan"
	CategoryCommunication = "communication"

	MaxSectionScore = 5
	MaxOverallScore = 100
)

// Categories is ordered; analytics tie-breaks follow this order.
var Categories = []Category{
	{CategoryHistory, "History Taking", "Consider OPQRST (onset, provocation/palliation, quality, radiation, severity, time) to structure history."},
	{CategoryRedFlags, "Red Flags", "Good practice to screen for red flags early (e.g., fever, chest pain, syncope)."},
	{CategoryMedsAllergies, "Meds & Allergies", "Always clarify current meds and allergies with examples."},
	{CategoryDifferential, "Differential Diagnosis", "State a brief differential and how you will rule in/out possibilities."},
	{CategoryPlan, "Plan & Counseling", "Outline next steps and safety-netting (when to return, expected course)."},
	{CategoryCommunication, "Communication", "Use plain language and teach-back to confirm understanding."},
}

func CategoryByID(id string) (Category, bool) {
	for _, c := range Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

type Section struct {
	Title    string `json:"title"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// Rubric is the canonical nested evaluation shape persisted with Feedback.
type Rubric struct {
	FeedbackText string             `json:"feedback_text"`
	OverallScore int                `json:"overall_score"`
	Sections     map[string]Section `json:"sections"`
}

func ClampSection(v int) int { return clamp(v, 0, MaxSectionScore) }

func ClampOverall(v int) int { return clamp(v, 0, MaxOverallScore) }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp forces every score into range.
func (r *Rubric) Clamp() {
	r.OverallScore = ClampOverall(r.OverallScore)
	for id, s := range r.Sections {
		s.Score = ClampSection(s.Score)
		r.Sections[id] = s
	}
}

// FallbackRubric is used when the evaluator output cannot be trusted: zero scores with
// the static hints as commentary.
func FallbackRubric() Rubric {
	r := Rubric{
		FeedbackText: "Automatic fallback feedback. (LLM JSON unavailable.)",
		OverallScore: 0,
		Sections:     make(map[string]Section, len(Categories)),
	}
	for _, c := range Categories {
		r.Sections[c.ID] = Section{Title: c.Title, Score: 0, Feedback: c.Hint}
	}
	return r
}
