// internal/nlu/extract.go
package nlu

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// ExtractEmail returns the first email token in the text, original case
// preserved, or "" if none is present.
func ExtractEmail(text string) string {
	return emailPattern.FindString(text)
}

// ExtractEmails returns every email token in the text, lower-cased and
// de-duplicated, in order of first appearance. Lower-casing here (but not in
// ExtractEmail) matches the platform behavior: bulk operations key users by
// case-folded address.
func ExtractEmails(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range emailPattern.FindAllString(text, -1) {
		m = strings.ToLower(m)
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

var fillerWords = map[string]bool{
	"please": true, "now": true, "immediately": true, "today": true, "asap": true,
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "in": true,
	"to": true, "for": true, "with": true, "as": true,
}

// boundaryClause cuts a captured name at the start of a trailing qualifier
// clause ("from 2025-01-05", "as mandatory", "valid until ...").
var boundaryClause = regexp.MustCompile(`(?i)\s+(?:from|until|starting|valid|as|with\s+validity)\s+\S.*$`)

// cleanName normalizes a captured resource-name candidate. Returns "" when
// the candidate is too short or is a bare stop-word, so the caller can keep
// walking its pattern cascade.
func cleanName(raw string) string {
	name := strings.TrimSpace(raw)
	name = boundaryClause.ReplaceAllString(name, "")
	name = strings.TrimRight(name, ".,!?;:")
	words := strings.Fields(name)
	for len(words) > 0 && fillerWords[strings.ToLower(words[len(words)-1])] {
		words = words[:len(words)-1]
	}
	name = strings.Join(words, " ")
	name = strings.TrimRight(name, ".,!?;:")
	if len(name) < 2 || stopWords[strings.ToLower(name)] {
		return ""
	}
	return name
}

func extractByCascade(text string, patterns []*regexp.Regexp) string {
	for _, p := range patterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if name := cleanName(m[1]); name != "" {
			return name
		}
	}
	return ""
}

var quotedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"([^"]+)"`),
	regexp.MustCompile(`\[([^\]]+)\]`),
	regexp.MustCompile(`'([^']+)'`),
}

// withQuoted prepends the quoted-span patterns so quoted names always win
// over keyword-led captures.
func withQuoted(patterns ...*regexp.Regexp) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(quotedPatterns)+len(patterns))
	out = append(out, quotedPatterns...)
	return append(out, patterns...)
}

var courseNamePatterns = withQuoted(
	regexp.MustCompile(`(?i)\bcourse\s+(?:called|named|titled)\s+(.+)$`),
	regexp.MustCompile(`(?i)\bcourse\s+(?:info|details)\s+(?:about\s+|on\s+|for\s+)?(.+)$`),
	regexp.MustCompile(`(?i)\bcourse\s+(.+)$`),
	regexp.MustCompile(`(?i)\b(?:in|to|from)\s+(?:the\s+)?(.+?)\s+course\b`),
)

var learningPlanNamePatterns = withQuoted(
	regexp.MustCompile(`(?i)\blearning\s+plan\s+(?:called|named)\s+(.+)$`),
	regexp.MustCompile(`(?i)\blearning\s+plan\s+(.+)$`),
	regexp.MustCompile(`(?i)\b(?:in|to|from)\s+(?:the\s+)?(.+?)\s+learning\s+plan\b`),
	regexp.MustCompile(`(?i)\b(?:in|to|from|into)\s+(?:the\s+)?plan\s+(.+)$`),
)

var sessionNamePatterns = withQuoted(
	regexp.MustCompile(`(?i)\b(?:ilt\s+)?session\s+(?:called|named)\s+(.+)$`),
	regexp.MustCompile(`(?i)\b(?:ilt\s+)?session\s+(.+)$`),
	regexp.MustCompile(`(?i)\b(?:in|to|from)\s+(?:the\s+)?(.+?)\s+session\b`),
)

// ExtractCourseName walks the course-name cascade: quoted spans win over
// keyword-led captures.
func ExtractCourseName(text string) string {
	return extractByCascade(text, courseNamePatterns)
}

// ExtractLearningPlanName walks the learning-plan-name cascade.
func ExtractLearningPlanName(text string) string {
	return extractByCascade(text, learningPlanNamePatterns)
}

// ExtractSessionName walks the ILT-session-name cascade.
func ExtractSessionName(text string) string {
	return extractByCascade(text, sessionNamePatterns)
}

var (
	startValidityPattern = regexp.MustCompile(`(?i)\b(?:valid\s+from|start\s+validity\s*[:\s]|starting|from)\s*(\d{4}-\d{2}-\d{2})\b`)
	endValidityPattern   = regexp.MustCompile(`(?i)\b(?:valid\s+until|end\s+validity\s*[:\s]|until|to|through)\s*(\d{4}-\d{2}-\d{2})\b`)
)

func isoDateOrEmpty(candidate string) string {
	if _, err := time.Parse("2006-01-02", candidate); err != nil {
		return ""
	}
	return candidate
}

// ExtractStartValidity accepts only a strict YYYY-MM-DD token after a
// start-validity lead-in. Natural-language dates are rejected on purpose;
// validity windows go to the platform verbatim.
func ExtractStartValidity(text string) string {
	m := startValidityPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return isoDateOrEmpty(m[1])
}

// ExtractEndValidity is the end-date counterpart of ExtractStartValidity.
func ExtractEndValidity(text string) string {
	m := endValidityPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return isoDateOrEmpty(m[1])
}

var assignmentTypePattern = regexp.MustCompile(`(?i)\b(?:as|assignment\s+type\s*[:\s]|type\s*[:\s]|level\s*[:\s])\s*(mandatory|required|recommended|optional)\b`)

// ExtractAssignmentType recognizes the closed assignment-type enumeration
// after a lead-in phrase, folded to lower case.
func ExtractAssignmentType(text string) AssignmentType {
	m := assignmentTypePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return AssignmentType(strings.ToLower(m[1]))
}

var (
	departmentTeamPattern = regexp.MustCompile(`(?i)\b(engineering|marketing|sales|finance|hr|support|operations|design|product|legal|it)\s+team\b`)
	rolePluralPattern     = regexp.MustCompile(`(?i)\b(developers|managers|admins|analysts|designers|engineers)\b`)
)

// ExtractTeamName matches a known department followed by "team", falling
// back to bare role plurals ("the developers").
func ExtractTeamName(text string) string {
	if m := departmentTeamPattern.FindStringSubmatch(text); m != nil {
		return strings.ToLower(m[1])
	}
	if m := rolePluralPattern.FindStringSubmatch(text); m != nil {
		return strings.ToLower(m[1])
	}
	return ""
}

func extractIdentifier(text, keyword string) string {
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b` + keyword + `\s+id[:\s]+(\d+)`),
		regexp.MustCompile(`(?i)\b` + keyword + `\s*#(\d+)`),
		regexp.MustCompile(`(?i)\b` + keyword + `\s+(\d+)\b`),
	}
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

// ExtractUserID matches "user id 123", "user#123" or "user 123".
func ExtractUserID(text string) string { return extractIdentifier(text, "user") }

// ExtractCourseID matches "course id 123", "course#123" or "course 123".
func ExtractCourseID(text string) string { return extractIdentifier(text, "course") }

// ExtractSessionID matches "session id 123", "session#123" or "session 123".
func ExtractSessionID(text string) string { return extractIdentifier(text, "session") }

var (
	jobUUIDPattern   = regexp.MustCompile(`(?i)\bjob\s+(?:id[:\s]+)?([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})\b`)
	bareJobRefPattern = regexp.MustCompile(`#(\d+)`)
)

// ExtractJobID matches "job id 123", "job#123" or "job 123", falling back to
// a bare "#123" reference. Bulk jobs carry uuid ids, so a uuid token after
// the job keyword wins over the numeric forms.
func ExtractJobID(text string) string {
	if m := jobUUIDPattern.FindStringSubmatch(text); m != nil {
		return strings.ToLower(m[1])
	}
	if id := extractIdentifier(text, "job"); id != "" {
		return id
	}
	if m := bareJobRefPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

var searchTermPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:search|find|look\s+for|show\s+me|list)\s+(?:for\s+)?(?:all\s+)?(.+?)\s+(?:courses?|learning\s+plans?|sessions?|users?)\b`),
	regexp.MustCompile(`(?i)\b(?:courses?|learning\s+plans?|sessions?|users?)\s+(?:about|on|matching|containing|related\s+to|for)\s+(.+)$`),
	regexp.MustCompile(`(?i)\b(?:search|find|look\s+for)\s+(?:for\s+)?(.+)$`),
}

// ExtractSearchTerm pulls the free-text term out of a search-style command.
func ExtractSearchTerm(text string) string {
	return extractByCascade(text, searchTermPatterns)
}

var offsetPattern = regexp.MustCompile(`(?i)\b(?:offset|skip|starting\s+at)\s+(\d+)\b`)

// ExtractOffset returns the pagination offset named in the text, or nil.
func ExtractOffset(text string) *int {
	m := offsetPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}
