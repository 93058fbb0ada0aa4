package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/medsim-backend/internal/data/repos"
	types "github.com/yungbote/medsim-backend/internal/domain"
	"github.com/yungbote/medsim-backend/internal/domain/chat"
	"github.com/yungbote/medsim-backend/internal/platform/dbctx"
	"github.com/yungbote/medsim-backend/internal/platform/logger"
)

const (
	trendWindow            = 10
	recentWindow           = 5
	improvementThreshold   = 60.0
	sectionToPercentFactor = 100.0 / chat.MaxSectionScore
)

type TrendPoint struct {
	Session string    `json:"session"`
	Score   int       `json:"score"`
	Date    time.Time `json:"date"`
}

type RecentSession struct {
	ID           uuid.UUID      `json:"id"`
	Title        string         `json:"title"`
	EndedAt      *time.Time     `json:"ended_at"`
	OverallScore int            `json:"overall_score"`
	Categories   map[string]int `json:"categories"`
}

type CategoryScore struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

type Insights struct {
	Strongest        *CategoryScore  `json:"strongest"`
	Weakest          *CategoryScore  `json:"weakest"`
	ImprovementAreas []CategoryScore `json:"improvement_areas"`
}

type Analytics struct {
	TotalSessions  int                `json:"total_sessions"`
	OverallAvg     float64            `json:"overall_avg"`
	CategoryAvg    map[string]float64 `json:"category_avg"`
	TrendData      []TrendPoint       `json:"trend_data"`
	RecentSessions []RecentSession    `json:"recent_sessions"`
	Insights       Insights           `json:"insights"`
}

type AnalyticsService interface {
	GetAnalytics(dbc dbctx.Context) (*Analytics, error)
}

type analyticsService struct {
	db           *gorm.DB
	log          *logger.Logger
	threadRepo   repos.ThreadRepo
	feedbackRepo repos.FeedbackRepo
}

func NewAnalyticsService(db *gorm.DB, log *logger.Logger, threadRepo repos.ThreadRepo, feedbackRepo repos.FeedbackRepo) AnalyticsService {
	return &analyticsService{
		db:           db,
		log:          log.With("service", "AnalyticsService"),
		threadRepo:   threadRepo,
		feedbackRepo: feedbackRepo,
	}
}

// ScoredSession is a closed thread with its decoded rubric.
type ScoredSession struct {
	Thread *types.Thread
	Rubric types.Rubric
}

func (as *analyticsService) GetAnalytics(dbc dbctx.Context) (*Analytics, error) {
	userID, err := requestUserID(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	threads, err := as.threadRepo.ListClosedByUser(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("list closed threads: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(threads))
	for _, t := range threads {
		ids = append(ids, t.ID)
	}
	rows, err := as.feedbackRepo.ListByThreadIDs(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	byThread := make(map[uuid.UUID]*types.Feedback, len(rows))
	for _, fb := range rows {
		byThread[fb.ThreadID] = fb
	}

	sessions := make([]ScoredSession, 0, len(threads))
	for _, t := range threads {
		fb := byThread[t.ID]
		if fb == nil {
			continue
		}
		r, err := fb.DecodeRubric()
		if err != nil {
			as.log.Warn("Skipping unreadable feedback", "thread_id", t.ID, "error", err)
			continue
		}
		sessions = append(sessions, ScoredSession{Thread: t, Rubric: r})
	}
	return BuildAnalytics(sessions), nil
}

// BuildAnalytics aggregates sessions ordered by ended_at descending.
func BuildAnalytics(sessions []ScoredSession) *Analytics {
	out := &Analytics{
		TotalSessions:  len(sessions),
		CategoryAvg:    map[string]float64{},
		TrendData:      []TrendPoint{},
		RecentSessions: []RecentSession{},
		Insights:       Insights{ImprovementAreas: []CategoryScore{}},
	}
	if len(sessions) == 0 {
		return out
	}

	total := 0
	sums := map[string]int{}
	counts := map[string]int{}
	for _, s := range sessions {
		total += s.Rubric.OverallScore
		for id, sec := range s.Rubric.Sections {
			sums[id] += sec.Score
			counts[id]++
		}
	}
	out.OverallAvg = round1(float64(total) / float64(len(sessions)))

	// Fixed category order keeps strongest/weakest ties stable.
	var ordered []CategoryScore
	for _, c := range chat.Categories {
		n := counts[c.ID]
		if n == 0 {
			continue
		}
		avg := round1(float64(sums[c.ID]) / float64(n) * sectionToPercentFactor)
		out.CategoryAvg[c.ID] = avg
		ordered = append(ordered, CategoryScore{Category: c.ID, Score: avg})
	}
	for i := range ordered {
		cs := ordered[i]
		if out.Insights.Strongest == nil || cs.Score > out.Insights.Strongest.Score {
			out.Insights.Strongest = &ordered[i]
		}
		if out.Insights.Weakest == nil || cs.Score < out.Insights.Weakest.Score {
			out.Insights.Weakest = &ordered[i]
		}
		if cs.Score < improvementThreshold {
			out.Insights.ImprovementAreas = append(out.Insights.ImprovementAreas, cs)
		}
	}
	sort.SliceStable(out.Insights.ImprovementAreas, func(i, j int) bool {
		return out.Insights.ImprovementAreas[i].Score < out.Insights.ImprovementAreas[j].Score
	})

	trend := sessions
	if len(trend) > trendWindow {
		trend = trend[:trendWindow]
	}
	for i := len(trend) - 1; i >= 0; i-- {
		s := trend[i]
		out.TrendData = append(out.TrendData, TrendPoint{
			Session: fmt.Sprintf("S%d", len(out.TrendData)+1),
			Score:   s.Rubric.OverallScore,
			Date:    endedAt(s.Thread),
		})
	}

	recent := sessions
	if len(recent) > recentWindow {
		recent = recent[:recentWindow]
	}
	for _, s := range recent {
		cats := make(map[string]int, len(s.Rubric.Sections))
		for id, sec := range s.Rubric.Sections {
			cats[id] = sec.Score
		}
		out.RecentSessions = append(out.RecentSessions, RecentSession{
			ID:           s.Thread.ID,
			Title:        s.Thread.Title,
			EndedAt:      s.Thread.EndedAt,
			OverallScore: s.Rubric.OverallScore,
			Categories:   cats,
		})
	}
	return out
}

func endedAt(t *types.Thread) time.Time {
	if t.EndedAt != nil {
		return *t.EndedAt
	}
	return t.UpdatedAt
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
