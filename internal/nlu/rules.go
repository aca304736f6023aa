// internal/nlu/rules.go
package nlu

import (
	"regexp"
	"time"
)

// Intent names returned by Analyze.
const (
	IntentHelp                     = "help"
	IntentCheckJobStatus           = "check_job_status"
	IntentListBackgroundJobs       = "list_background_jobs"
	IntentLoadMoreResults          = "load_more_results"
	IntentMarkAttendance           = "mark_attendance"
	IntentBulkUnenrollCourse       = "bulk_unenroll_course"
	IntentUnenrollUserLearningPlan = "unenroll_user_from_learning_plan"
	IntentUnenrollUserSession      = "unenroll_user_from_ilt_session"
	IntentUnenrollUserCourse       = "unenroll_user_from_course"
	IntentBulkEnrollLearningPlan   = "bulk_enroll_learning_plan"
	IntentBulkEnrollCourse         = "bulk_enroll_course"
	IntentEnrollUserLearningPlan   = "enroll_user_in_learning_plan"
	IntentEnrollUserSession        = "enroll_user_in_ilt_session"
	IntentEnrollUserCourse         = "enroll_user_in_course"
	IntentScheduleSession          = "schedule_ilt_session"
	IntentUpdateValidity           = "update_enrollment_validity"
	IntentGetCourseEnrollments     = "get_course_enrollments"
	IntentGetUserEnrollments       = "get_user_enrollments"
	IntentGetUserInfo              = "get_user_info"
	IntentGetCourseInfo            = "get_course_info"
	IntentGetLearningPlanInfo      = "get_learning_plan_info"
	IntentGetSessionInfo           = "get_session_info"
	IntentSearchUsers              = "search_users"
	IntentSearchLearningPlans      = "search_learning_plans"
	IntentSearchSessions           = "search_sessions"
	IntentSearchCourses            = "search_courses"
	IntentUnknown                  = "unknown"
)

// Rule is one entry in the intent registry. Registration order is the
// priority: the resolver walks rules in slice order and an earlier rule that
// clears the short-circuit threshold shadows everything after it.
type Rule struct {
	Name       string
	Patterns   []*regexp.Regexp
	Confidence float64

	// Extract runs the rule's dedicated entity extraction. Returning nil
	// means the surface match was a false positive (e.g. a bulk rule that
	// found only one email) and the resolver moves on.
	Extract func(text string, now time.Time) *Entities

	// Valid gates acceptance on the rule's required fields. nil means no
	// required fields.
	Valid func(e *Entities) bool
}

func (r Rule) matches(text string) bool {
	for _, p := range r.Patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func patterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

func extractValidity(text string, e *Entities) {
	e.AssignmentType = ExtractAssignmentType(text)
	e.StartValidity = ExtractStartValidity(text)
	e.EndValidity = ExtractEndValidity(text)
}

func extractBulkCourse(action Action) func(string, time.Time) *Entities {
	return func(text string, _ time.Time) *Entities {
		emails := ExtractEmails(text)
		team := ExtractTeamName(text)
		if len(emails) < 2 && team == "" {
			return nil
		}
		e := &Entities{
			Emails:       emails,
			TeamName:     team,
			CourseName:   ExtractCourseName(text),
			CourseID:     ExtractCourseID(text),
			ResourceType: ResourceCourse,
			Action:       action,
			IsBulk:       true,
		}
		extractValidity(text, e)
		return e
	}
}

func hasCourseRef(e *Entities) bool { return e.CourseName != "" || e.CourseID != "" }

func hasSessionRef(e *Entities) bool { return e.SessionName != "" || e.SessionID != "" }

// DefaultRules returns the intent registry in priority order. The ordering
// is load-bearing and pinned by tests:
//   - unenrollment before enrollment, because "remove X from course Y" and
//     "add X to course Y" overlap on every keyword except the verb;
//   - bulk variants before their singular counterparts;
//   - pagination and job-status rules before the generic enrollment queries
//     whose patterns they prefix.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: IntentHelp,
			Patterns: patterns(
				`(?i)^\s*(?:help|\?)\s*$`,
				`(?i)^\s*(?:help\s+me|what\s+can\s+you\s+do|show\s+(?:me\s+)?commands|usage)\b`,
			),
			Confidence: 0.99,
			Extract:    func(string, time.Time) *Entities { return &Entities{} },
		},
		{
			Name: IntentCheckJobStatus,
			Patterns: patterns(
				`(?i)\b(?:job|task)\s+status\b`,
				`(?i)\bstatus\s+(?:of|for)\s+(?:the\s+)?job\b`,
				`(?i)\bcheck\s+(?:on\s+)?job\b`,
			),
			Confidence: 0.98,
			Extract: func(text string, _ time.Time) *Entities {
				return &Entities{JobID: ExtractJobID(text)}
			},
			Valid: func(e *Entities) bool { return e.JobID != "" },
		},
		{
			Name: IntentListBackgroundJobs,
			Patterns: patterns(
				`(?i)\b(?:list|show)\s+(?:all\s+|my\s+)?(?:background\s+|active\s+|running\s+)?jobs\b`,
				`(?i)\bwhat\s+jobs\s+are\s+running\b`,
			),
			Confidence: 0.96,
			Extract:    func(string, time.Time) *Entities { return &Entities{} },
		},
		{
			Name: IntentLoadMoreResults,
			Patterns: patterns(
				`(?i)^\s*(?:load|show)\s+more\b`,
				`(?i)\bnext\s+page\b`,
				`(?i)\bmore\s+results\b`,
			),
			Confidence: 0.97,
			Extract: func(text string, _ time.Time) *Entities {
				return &Entities{LoadMore: true, Offset: ExtractOffset(text)}
			},
		},
		{
			Name: IntentMarkAttendance,
			Patterns: patterns(
				`(?i)\bmark\b.*\battendance\b`,
				`(?i)\bmark\b.*\bas\s+attended\b`,
				`(?i)\battendance\s+for\b`,
			),
			Confidence: 0.96,
			Extract: func(text string, _ time.Time) *Entities {
				return &Entities{
					Email:        ExtractEmail(text),
					SessionName:  ExtractSessionName(text),
					SessionID:    ExtractSessionID(text),
					ResourceType: ResourceILTSession,
					Action:       ActionMarkAttendance,
				}
			},
			Valid: func(e *Entities) bool { return e.Email != "" && hasSessionRef(e) },
		},
		{
			Name: IntentBulkUnenrollCourse,
			Patterns: patterns(
				`(?i)\b(?:unenroll|remove|withdraw)\b.*\bcourse\b`,
			),
			Confidence: 0.97,
			Extract:    extractBulkCourse(ActionBulkUnenroll),
			Valid: func(e *Entities) bool {
				return (len(e.Emails) > 1 || e.TeamName != "") && hasCourseRef(e)
			},
		},
		{
			Name: IntentUnenrollUserLearningPlan,
			Patterns: patterns(
				`(?i)\b(?:unenroll|remove|withdraw|drop)\b.*\blearning\s+plan\b`,
			),
			Confidence: 0.96,
			Extract: func(text string, _ time.Time) *Entities {
				return &Entities{
					Email:            ExtractEmail(text),
					LearningPlanName: ExtractLearningPlanName(text),
					ResourceType:     ResourceLearningPlan,
					Action:           ActionUnenroll,
				}
			},
			Valid: func(e *Entities) bool { return e.Email != "" && e.LearningPlanName != "" },
		},
		{
			Name: IntentUnenrollUserSession,
			Patterns: patterns(
				`(?i)\b(?:unenroll|remove|withdraw|drop)\b.*\bsession\b`,
			),
			Confidence: 0.96,
			Extract: func(text string, _ time.Time) *Entities {
				return &Entities{
					Email:        ExtractEmail(text),
					SessionName:  ExtractSessionName(text),
					SessionID:    ExtractSessionID(text),
					ResourceType: ResourceILTSession,
					Action:       ActionUnenroll,
				}
			},
			Valid: func(e *Entities) bool { return e.Email != "" && hasSessionRef(e) },
		},
		{
			Name: IntentUnenrollUserCourse,
			Patterns: patterns(
				`(?i)\b(?:unenroll|remove|withdraw|drop)\b.*\bcourse\b`,
				`(?i)\b(?:unenroll|withdraw)\b.*\bfrom\b`,
			),
			Confidence: 0.96,
			Extract: func(text string, _ time.Time) *Entities {
				return &Entities{
					Email:        ExtractEmail(text),
					CourseName:   ExtractCourseName(text),
					CourseID:     ExtractCourseID(text),
					ResourceType: ResourceCourse,
					Action:       ActionUnenroll,
				}
			},
			Valid: func(e *Entities) bool { return e.Email != "" && hasCourseRef(e) },
		},
		{
			Name: IntentBulkEnrollLearningPlan,
			Patterns: patterns(
				`(?i)\b(?:enroll|add|register|assign)\b.*\blearning\s+plan\b`,
			),
			Confidence: 0.96,
			Extract: func(text string, _ time.Time) *Entities {
				emails := ExtractEmails(text)
				team := ExtractTeamName(text)
				if len(emails) < 2 && team == "" {
					return nil
				}
				e := &Entities{
					Emails:           emails,
					TeamName:         team,
					LearningPlanName: ExtractLearningPlanName(text),
					ResourceType:     ResourceLearningPlan,
					Action:           ActionBulkEnroll,
					IsBulk:           true,
				}
				extractValidity(text, e)
				return e
			},
			Valid: func(e *Entities) bool {
				return (len(e.Emails) > 1 || e.TeamName != "") && e.LearningPlanName != ""
			},
		},
		{
			Name: IntentBulkEnrollCourse,
			Patterns: patterns(
				`(?i)\b(?:enroll|add|register|sign\s+up)\b.*\bcourse\b`,
				`(?i)\bbulk\s+enroll\b`,
			),
			Confidence: 0.96,
			Extract:    extractBulkCourse(ActionBulkEnroll),
			Valid: func(e *Entities) bool {
				return (len(e.Emails) > 1 || e.TeamName != "") && hasCourseRef(e)
			},
		},
		{
			Name: IntentEnrollUserLearningPlan,
			Patterns: patterns(
				`(?i)\b(?:enroll|add|register|assign)\b.*\blearning\s+plan\b`,
			),
			Confidence: 0.94,
			Extract: func(text string, _ time.Time) *Entities {
				e := &Entities{
					Email:            ExtractEmail(text),
					LearningPlanName: ExtractLearningPlanName(text),
					ResourceType:     ResourceLearningPlan,
					Action:           ActionEnroll,
				}
				extractValidity(text, e)
				return e
			},
			Valid: func(e *Entities) bool { return e.Email != "" && e.LearningPlanName != "" },
		},
		{
			Name: IntentEnrollUserSession,
			Patterns: patterns(
				`(?i)\b(?:enroll|add|register|sign\s+up)\b.*\bsession\b`,
			),
			Confidence: 0.94,
			Extract: func(text string, now time.Time) *Entities {
				return &Entities{
					Email:        ExtractEmail(text),
					SessionName:  ExtractSessionName(text),
					SessionID:    ExtractSessionID(text),
					SessionDate:  ExtractSessionDate(text, now),
					ResourceType: ResourceILTSession,
					Action:       ActionEnroll,
				}
			},
			Valid: func(e *Entities) bool { return e.Email != "" && hasSessionRef(e) },
		},
		{
			Name: IntentEnrollUserCourse,
			Patterns: patterns(
				`(?i)\b(?:enroll|add|register|sign\s+up)\b.*\bcourse\b`,
				`(?i)\benroll\b.*\bin\b`,
			),
			Confidence: 0.93,
			Extract: func(text string, _ time.Time) *Entities {
				e := &Entities{
					Email:        ExtractEmail(text),
					CourseName:   ExtractCourseName(text),
					CourseID:     ExtractCourseID(text),
					ResourceType: ResourceCourse,
					Action:       ActionEnroll,
				}
				extractValidity(text, e)
				return e
			},
			Valid: func(e *Entities) bool { return e.Email != "" && hasCourseRef(e) },
		},
		{
			Name: IntentScheduleSession,
			Patterns: patterns(
				`(?i)\b(?:schedule|create|set\s+up)\b.*\bsession\b`,
			),
			Confidence: 0.94,
			Extract: func(text string, now time.Time) *Entities {
				return &Entities{
					SessionName:  ExtractSessionName(text),
					SessionDate:  ExtractSessionDate(text, now),
					ResourceType: ResourceILTSession,
				}
			},
			Valid: func(e *Entities) bool { return e.SessionName != "" && e.SessionDate != "" },
		},
		{
			Name: IntentUpdateValidity,
			Patterns: patterns(
				`(?i)\b(?:extend|update|change|set)\b.*\bvalidity\b`,
				`(?i)\bvalidity\b.*\b(?:to|until|from)\b`,
			),
			Confidence: 0.94,
			Extract: func(text string, _ time.Time) *Entities {
				return &Entities{
					Email:         ExtractEmail(text),
					CourseName:    ExtractCourseName(text),
					CourseID:      ExtractCourseID(text),
					StartValidity: ExtractStartValidity(text),
					EndValidity:   ExtractEndValidity(text),
					ResourceType:  ResourceCourse,
				}
			},
			Valid: func(e *Entities) bool {
				return e.Email != "" && hasCourseRef(e) &&
					(e.StartValidity != "" || e.EndValidity != "")
			},
		},
		{
			Name: IntentGetCourseEnrollments,
			Patterns: patterns(
				`(?i)\bwho\s+is\s+enrolled\b`,
				`(?i)\b(?:show|list|get)\b.*\b(?:enrollments|learners|students)\b.*\bcourse\b`,
			),
			Confidence: 0.9,
			Extract: func(text string, _ time.Time) *Entities {
				return &Entities{
					CourseName:   ExtractCourseName(text),
					CourseID:     ExtractCourseID(text),
					ResourceType: ResourceCourse,
					Offset:       ExtractOffset(text),
				}
			},
			Valid: hasCourseRef,
		},
		{
			Name: IntentGetUserEnrollments,
			Patterns: patterns(
				`(?i)\b(?:show|list|get)\b.*\benrollments?\b`,
				`(?i)\benrollments?\s+(?:of|for)\b`,
				`(?i)\bwhat\s+(?:is|are)\b.*\benrolled\s+in\b`,
			),
			Confidence: 0.88,
			Extract: func(text string, _ time.Time) *Entities {
				return &Entities{
					Email:  ExtractEmail(text),
					UserID: ExtractUserID(text),
					Offset: ExtractOffset(text),
				}
			},
			Valid: func(e *Entities) bool { return e.Email != "" || e.UserID != "" },
		},
		{
			Name: IntentGetUserInfo,
			Patterns: patterns(
				`(?i)\b(?:find|show|get|look\s*up)\s+user\b`,
				`(?i)\buser\s+(?:info|information|details|profile)\b`,
				`(?i)\bwho\s+is\s+\S+@`,
			),
			Confidence: 0.85,
			Extract: func(text string, _ time.Time) *Entities {
				return &Entities{
					Email:  ExtractEmail(text),
					UserID: ExtractUserID(text),
				}
			},
			Valid: func(e *Entities) bool { return e.Email != "" || e.UserID != "" },
		},
		{
			Name: IntentGetCourseInfo,
			Patterns: patterns(
				`(?i)\bcourse\s+(?:info|information|details)\b`,
				`(?i)\b(?:info|information|details|tell\s+me)\s+(?:about\s+)?(?:the\s+)?course\b`,
			),
			Confidence: 0.9,
			Extract: func(text string, _ time.Time) *Entities {
				return &Entities{
					CourseName:   ExtractCourseName(text),
					CourseID:     ExtractCourseID(text),
					ResourceType: ResourceCourse,
				}
			},
			Valid: hasCourseRef,
		},
		{
			Name: IntentGetLearningPlanInfo,
			Patterns: patterns(
				`(?i)\blearning\s+plan\s+(?:info|information|details)\b`,
				`(?i)\b(?:info|details|tell\s+me)\s+(?:about\s+)?(?:the\s+)?learning\s+plan\b`,
			),
			Confidence: 0.88,
			Extract: func(text string, _ time.Time) *Entities {
				return &Entities{
					LearningPlanName: ExtractLearningPlanName(text),
					ResourceType:     ResourceLearningPlan,
				}
			},
			Valid: func(e *Entities) bool { return e.LearningPlanName != "" },
		},
		{
			Name: IntentGetSessionInfo,
			Patterns: patterns(
				`(?i)\bsession\s+(?:info|information|details)\b`,
				`(?i)\b(?:info|details|tell\s+me)\s+(?:about\s+)?(?:the\s+)?session\b`,
			),
			Confidence: 0.88,
			Extract: func(text string, _ time.Time) *Entities {
				return &Entities{
					SessionName:  ExtractSessionName(text),
					SessionID:    ExtractSessionID(text),
					ResourceType: ResourceILTSession,
				}
			},
			Valid: hasSessionRef,
		},
		{
			Name: IntentSearchUsers,
			Patterns: patterns(
				`(?i)\b(?:search|find|look\s+for|list)\b.*\busers\b`,
			),
			Confidence: 0.82,
			Extract: func(text string, _ time.Time) *Entities {
				return &Entities{SearchTerm: ExtractSearchTerm(text), Offset: ExtractOffset(text)}
			},
			Valid: func(e *Entities) bool { return e.SearchTerm != "" },
		},
		{
			Name: IntentSearchLearningPlans,
			Patterns: patterns(
				`(?i)\b(?:search|find|look\s+for|show\s+me|list)\b.*\blearning\s+plans?\b`,
			),
			Confidence: 0.82,
			Extract: func(text string, _ time.Time) *Entities {
				return &Entities{
					SearchTerm:   ExtractSearchTerm(text),
					ResourceType: ResourceLearningPlan,
					Offset:       ExtractOffset(text),
				}
			},
			Valid: func(e *Entities) bool { return e.SearchTerm != "" },
		},
		{
			Name: IntentSearchSessions,
			Patterns: patterns(
				`(?i)\b(?:search|find|look\s+for|show\s+me|list)\b.*\bsessions?\b`,
			),
			Confidence: 0.82,
			Extract: func(text string, _ time.Time) *Entities {
				return &Entities{
					SearchTerm:   ExtractSearchTerm(text),
					ResourceType: ResourceILTSession,
					Offset:       ExtractOffset(text),
				}
			},
			Valid: func(e *Entities) bool { return e.SearchTerm != "" },
		},
		{
			Name: IntentSearchCourses,
			Patterns: patterns(
				`(?i)\b(?:search|find|look\s+for|show\s+me|list)\b.*\bcourses?\b`,
				`(?i)\bsearch\s+(?:the\s+)?catalog\b`,
			),
			Confidence: 0.85,
			Extract: func(text string, _ time.Time) *Entities {
				return &Entities{
					SearchTerm:   ExtractSearchTerm(text),
					ResourceType: ResourceCourse,
					Offset:       ExtractOffset(text),
				}
			},
			Valid: func(e *Entities) bool { return e.SearchTerm != "" },
		},
	}
}
