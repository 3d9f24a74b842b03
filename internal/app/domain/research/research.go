// Package research holds per-member research assignments.
package research

import "strings"

// Assignment is one row of research_stage, keyed by project and user.
type Assignment struct {
	ProjectID string
	UserID    string
	Tasks     []string
	PDFURL    string
}

// HasTasks reports whether any task is non-blank.
func (a Assignment) HasTasks() bool {
	for _, t := range a.Tasks {
		if strings.TrimSpace(t) != "" {
			return true
		}
	}
	return false
}

// Topic is one generated research topic.
type Topic struct {
	Topic         string `json:"topic"`
	AssignedTo    string `json:"assigned_to"`
	Justification string `json:"justification,omitempty"`
}

// Group collects the topics assigned to one member.
type Group struct {
	UserID string
	Topics []string
}

// GroupByAssignee groups topics by AssignedTo, keeping the order in which
// each assignee first appears and the topic order within each group.
func GroupByAssignee(topics []Topic) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, t := range topics {
		if t.AssignedTo == "" {
			continue
		}
		i, ok := index[t.AssignedTo]
		if !ok {
			i = len(groups)
			index[t.AssignedTo] = i
			groups = append(groups, Group{UserID: t.AssignedTo})
		}
		groups[i].Topics = append(groups[i].Topics, t.Topic)
	}
	return groups
}

// Member is the read model returned to clients.
type Member struct {
	UserID string   `json:"user_id"`
	Name   *string  `json:"name"`
	Task   []string `json:"task"`
	PDFURL *string  `json:"pdf_url"`
}
