package services

import (
	"context"
	"errors"
	"strings"

	types "github.com/yungbote/medsim-backend/internal/domain"
	"github.com/yungbote/medsim-backend/internal/platform/apierr"
	"github.com/yungbote/medsim-backend/internal/platform/llm"
	"github.com/yungbote/medsim-backend/internal/platform/logger"
)

const (
	PatientSystemInstruction = "You are role-playing a patient in a clinical interview. " +
		"Stay consistent with earlier answers. Do not provide diagnoses or medical advice. " +
		"Only speak as the patient."

	ReplyNotSure  = "I'm not sure how to respond to that."
	ReplyTrouble  = "I'm having trouble expressing myself. Could you rephrase?"
	replyUnclear  = "I'm not sure, doctor. Could you explain what you mean?"
	patientTemp   = 0.3
	historyHeader = "Conversation history:\n"
)

type cannedReply struct {
	keywords []string
	reply    string
}

// Checked in order; first hit wins.
var cannedReplies = []cannedReply{
	{[]string{"pain", "ache", "hurt"}, "I've had a dull ache for about 3 days. It gets worse when I move."},
	{[]string{"fever", "temperature"}, "I felt feverish yesterday night, around 101°F, with chills."},
	{[]string{"cough", "breath", "chest"}, "I've been coughing a lot and feel a little short of breath after climbing stairs."},
	{[]string{"medication", "allergy", "drug"}, "I take only a daily multivitamin. I'm allergic to penicillin."},
}

// PatientSimulator produces the next patient utterance for a doctor utterance.
// history is the thread's ordered messages before the utterance.
type PatientSimulator interface {
	Reply(ctx context.Context, utterance string, history []*types.Message) (string, error)
}

type patientSimulator struct {
	log   *logger.Logger
	model llm.Client
}

// NewPatientSimulator uses model when non-nil, otherwise the canned keyword replies.
func NewPatientSimulator(log *logger.Logger, model llm.Client) PatientSimulator {
	return &patientSimulator{log: log.With("service", "PatientSimulator"), model: model}
}

func (ps *patientSimulator) Reply(ctx context.Context, utterance string, history []*types.Message) (string, error) {
	if ps.model == nil {
		return CannedPatientReply(utterance), nil
	}
	text, err := ps.model.Generate(ctx, llm.Request{
		System:      PatientSystemInstruction,
		Turns:       []llm.Turn{{Role: llm.RoleUser, Text: PatientPrompt(utterance, history)}},
		Temperature: patientTemp,
	})
	if errors.Is(err, llm.ErrEmptyResponse) {
		return ReplyNotSure, nil
	}
	if err != nil {
		return "", apierr.Upstream(ps.model.Provider(), err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ReplyNotSure, nil
	}
	return text, nil
}

// PatientPrompt serializes history as Doctor:/Patient: lines followed by the new utterance.
func PatientPrompt(utterance string, history []*types.Message) string {
	var b strings.Builder
	if len(history) > 0 {
		b.WriteString(historyHeader)
		for _, m := range history {
			b.WriteString(roleLabel(m.Role))
			b.WriteString(": ")
			b.WriteString(m.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(utterance)
	b.WriteString("\n")
	return b.String()
}

func CannedPatientReply(utterance string) string {
	p := strings.ToLower(utterance)
	for _, c := range cannedReplies {
		for _, k := range c.keywords {
			if strings.Contains(p, k) {
				return c.reply
			}
		}
	}
	return replyUnclear
}

func roleLabel(r types.Role) string {
	if r == types.RoleDoctor {
		return "Doctor"
	}
	return "Patient"
}
