// internal/nlu/extract_test.go
package nlu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractEmail_PreservesCase(t *testing.T) {
	assert.Equal(t, "JOHN@Company.com", ExtractEmail("Find user JOHN@Company.com"))
}

func TestExtractEmail_NoMatch(t *testing.T) {
	assert.Equal(t, "", ExtractEmail("no address in here"))
}

func TestExtractEmails(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "lower-cases and dedupes",
			text:     "Enroll JOHN@Co.com and john@co.com and jane@co.com",
			expected: []string{"john@co.com", "jane@co.com"},
		},
		{
			name:     "insertion order preserved",
			text:     "b@x.com then a@x.com",
			expected: []string{"b@x.com", "a@x.com"},
		},
		{
			name:     "none found",
			text:     "nothing here",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractEmails(tt.text))
		})
	}
}

func TestExtractCourseName(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "quoted span beats bare cascade and filler is stripped",
			text:     `Course info "Excel Training" please`,
			expected: "Excel Training",
		},
		{
			name:     "bracketed span",
			text:     "Enroll jane@co.com in course [Data Science 101]",
			expected: "Data Science 101",
		},
		{
			name:     "keyword-led capture cut at validity clause",
			text:     "Enroll jane@co.com in course Excel Training from 2025-01-05",
			expected: "Excel Training",
		},
		{
			name:     "name before course keyword",
			text:     "Add jane@co.com to the Advanced Excel course please",
			expected: "Advanced Excel",
		},
		{
			name:     "trailing punctuation stripped",
			text:     "Who is enrolled in course Safety Basics?",
			expected: "Safety Basics",
		},
		{
			name:     "stop-word candidate rejected",
			text:     "enroll someone in course the",
			expected: "",
		},
		{
			name:     "no course reference",
			text:     "what is the weather",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractCourseName(tt.text))
		})
	}
}

func TestExtractLearningPlanName(t *testing.T) {
	assert.Equal(t, "Onboarding", ExtractLearningPlanName("Enroll jane@co.com in learning plan Onboarding"))
	assert.Equal(t, "New Hire Track", ExtractLearningPlanName(`learning plan info "New Hire Track"`))
	assert.Equal(t, "Onboarding", ExtractLearningPlanName("add jane@co.com to plan Onboarding"))
	assert.Equal(t, "", ExtractLearningPlanName("no plan here"))
	assert.Equal(t, "", ExtractLearningPlanName("we should plan ahead"))
}

func TestExtractSessionName(t *testing.T) {
	assert.Equal(t, "Safety Basics", ExtractSessionName("Mark attendance for x@y.com in session Safety Basics"))
	assert.Equal(t, "Excel Workshop", ExtractSessionName(`Schedule session "Excel Workshop" tomorrow`))
}

func TestExtractStartValidity(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "strict ISO date accepted",
			text:     "enroll jane@co.com in course X from 2025-01-05",
			expected: "2025-01-05",
		},
		{
			name:     "natural-language date rejected",
			text:     "enroll jane@co.com in course X from January 5th",
			expected: "",
		},
		{
			name:     "impossible calendar date rejected",
			text:     "valid from 2025-13-40",
			expected: "",
		},
		{
			name:     "explicit lead-in",
			text:     "set start validity 2025-02-01",
			expected: "2025-02-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractStartValidity(tt.text))
		})
	}
}

func TestExtractEndValidity(t *testing.T) {
	assert.Equal(t, "2025-12-31", ExtractEndValidity("from 2025-01-05 to 2025-12-31"))
	assert.Equal(t, "2025-06-30", ExtractEndValidity("extend until 2025-06-30"))
	assert.Equal(t, "", ExtractEndValidity("until next month"))
}

func TestExtractAssignmentType(t *testing.T) {
	assert.Equal(t, AssignmentMandatory, ExtractAssignmentType("enroll jane as MANDATORY"))
	assert.Equal(t, AssignmentRecommended, ExtractAssignmentType("assignment type: recommended"))
	assert.Equal(t, AssignmentType(""), ExtractAssignmentType("enroll jane as supervisor"))
}

func TestExtractTeamName(t *testing.T) {
	assert.Equal(t, "engineering", ExtractTeamName("Enroll the Engineering team in course X"))
	assert.Equal(t, "developers", ExtractTeamName("add all developers to the plan"))
	assert.Equal(t, "", ExtractTeamName("enroll jane@co.com"))
}

func TestExtractIdentifiers(t *testing.T) {
	assert.Equal(t, "123", ExtractUserID("show user id: 123"))
	assert.Equal(t, "42", ExtractUserID("show user#42"))
	assert.Equal(t, "77", ExtractCourseID("course 77 details"))
	assert.Equal(t, "12345", ExtractJobID("check job 12345"))
	assert.Equal(t, "99", ExtractJobID("status of #99"))
	assert.Equal(t, "3b2e8a50-9c1d-4f6a-b7e2-0d5c4a1f9e88",
		ExtractJobID("status of job 3B2E8A50-9C1D-4F6A-B7E2-0D5C4A1F9E88"))
	assert.Equal(t, "", ExtractJobID("no reference"))
}

func TestExtractSearchTerm(t *testing.T) {
	assert.Equal(t, "Python", ExtractSearchTerm("Find Python courses"))
	assert.Equal(t, "compliance", ExtractSearchTerm("show me courses about compliance"))
	assert.Equal(t, "", ExtractSearchTerm("hello there"))
}

func TestExtractOffset(t *testing.T) {
	off := ExtractOffset("show more starting at 40")
	if assert.NotNil(t, off) {
		assert.Equal(t, 40, *off)
	}
	assert.Nil(t, ExtractOffset("show more"))
}

func TestExtractSessionDate(t *testing.T) {
	// Monday.
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{name: "iso passthrough", text: "schedule session X on 2025-04-01", expected: "2025-04-01"},
		{name: "tomorrow", text: "schedule session X tomorrow", expected: "2025-03-11"},
		{name: "today", text: "session X today", expected: "2025-03-10"},
		{name: "next weekday", text: "session X next friday", expected: "2025-03-14"},
		{name: "month day with year", text: "session X on March 15, 2025", expected: "2025-03-15"},
		{name: "past month day rolls forward", text: "session X on January 5", expected: "2026-01-05"},
		{name: "impossible calendar day", text: "session X on February 29", expected: ""},
		{name: "slash date", text: "session X on 25/12/2025", expected: "2025-12-25"},
		{name: "no date", text: "schedule session X sometime", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractSessionDate(tt.text, now))
		})
	}
}

func TestExtractSessionDateRollPastLeapDay(t *testing.T) {
	// A leap day that already passed in a leap year rolls into a year
	// without one; the rolled date degrades to empty rather than emitting
	// an impossible calendar date.
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "", ExtractSessionDate("schedule session X on February 29", now))
}
