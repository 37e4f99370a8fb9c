package widget

import (
	"encoding/json"
	"strings"
)

// Question is one of the fixed yes/no screening questions.
type Question struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
}

var questions = [...]Question{
	{ID: "trained_before", Prompt: "Have you worked with a fitness coach before?"},
	{ID: "has_injuries", Prompt: "Do you have any injuries or medical conditions we should know about?"},
	{ID: "ready_to_commit", Prompt: "Are you ready to commit to a 12-week transformation program?"},
}

// Questions returns the screening questions in display order.
func Questions() []Question {
	out := make([]Question, len(questions))
	copy(out, questions[:])
	return out
}

func knownQuestion(id string) bool {
	for _, q := range questions {
		if q.ID == id {
			return true
		}
	}
	return false
}

// Contact is the form half of the booking draft.
type Contact struct {
	Name     string
	WhatsApp string
	// Answers holds only the questions the user answered.
	Answers map[string]bool
}

// Complete reports whether both required contact fields are filled in.
func (c Contact) Complete() bool {
	return strings.TrimSpace(c.Name) != "" && strings.TrimSpace(c.WhatsApp) != ""
}

func (c Contact) clone() Contact {
	out := Contact{Name: c.Name, WhatsApp: c.WhatsApp}
	if c.Answers != nil {
		out.Answers = make(map[string]bool, len(c.Answers))
		for k, v := range c.Answers {
			out.Answers[k] = v
		}
	}
	return out
}

// answerLabels renders answers as question id -> "Yes"/"No".
func (c Contact) answerLabels() map[string]string {
	out := make(map[string]string, len(c.Answers))
	for id, yes := range c.Answers {
		if yes {
			out[id] = "Yes"
		} else {
			out[id] = "No"
		}
	}
	return out
}

func (c Contact) serializedAnswers() string {
	// A map[string]string always marshals.
	b, _ := json.Marshal(c.answerLabels())
	return string(b)
}
