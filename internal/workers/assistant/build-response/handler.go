// internal/workers/assistant/build-response/handler.go
package buildresponse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"lms-assistant/internal/common/logger"
	"lms-assistant/internal/common/metrics"
	"lms-assistant/internal/common/validation"
	"lms-assistant/internal/nlu"
)

const TaskType = "build-response"

var (
	ErrInvalidInput = errors.New("INVALID_INPUT")
)

// inputSchema is the contract the upstream pipeline must satisfy before a
// reply can be rendered.
var inputSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"intent"},
	"properties": map[string]interface{}{
		"intent":    map[string]interface{}{"type": "string", "minLength": 1},
		"requestId": map[string]interface{}{"type": "string"},
		"success":   map[string]interface{}{"type": "boolean"},
		"errorCode": map[string]interface{}{"type": "string"},
		"data":      map[string]interface{}{"type": "object"},
	},
}

const helpText = `I can help you manage the learning platform. Try things like:
- "Enroll john@acme.com in the Safety Basics course"
- "Enroll a@acme.com and b@acme.com in Onboarding" (bulk)
- "Unenroll jane@acme.com from the Excel learning plan"
- "Show enrollments for course Safety Basics"
- "Search courses about compliance"
- "Schedule ILT session Fire Drill for next Tuesday"
- "Check status of job #12" / "list jobs"`

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(job.Variables), &raw); err != nil {
		h.failJob(client, job, fmt.Sprintf("parse input: %v", err))
		return
	}
	if err := validation.MustBeValid(raw, inputSchema); err != nil {
		h.failJob(client, job, fmt.Sprintf("INVALID_INPUT: %v", err))
		return
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, fmt.Sprintf("parse input: %v", err))
		return
	}

	output, err := h.Execute(context.Background(), &input)
	if err != nil {
		h.failJob(client, job, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	if input.Intent == "" {
		return nil, fmt.Errorf("%w: intent is required", ErrInvalidInput)
	}

	text := h.render(input)

	return &Output{
		Reply: ReplyPayload{
			RequestID: input.RequestID,
			Intent:    input.Intent,
			Text:      text,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   h.config.AppVersion,
		},
	}, nil
}

func (h *Handler) render(input *Input) string {
	if input.ErrorCode != "" {
		return h.renderError(input)
	}

	switch input.Intent {
	case nlu.IntentHelp:
		return helpText
	case nlu.IntentUnknown:
		return "Sorry, I didn't understand that. Type \"help\" to see what I can do."
	case nlu.IntentGetUserInfo:
		return h.renderUser(input.Data)
	case nlu.IntentGetCourseInfo:
		return h.renderCourse(input.Data)
	case nlu.IntentGetLearningPlanInfo:
		return h.renderLearningPlan(input.Data)
	case nlu.IntentGetSessionInfo:
		return h.renderSession(input.Data)
	case nlu.IntentGetUserEnrollments, nlu.IntentGetCourseEnrollments, nlu.IntentLoadMoreResults:
		return h.renderEnrollments(input.Data)
	case nlu.IntentSearchCourses, nlu.IntentSearchLearningPlans,
		nlu.IntentSearchSessions, nlu.IntentSearchUsers:
		return h.renderSearchResults(input.Data)
	case nlu.IntentBulkEnrollCourse, nlu.IntentBulkEnrollLearningPlan, nlu.IntentBulkUnenrollCourse:
		return h.renderBulkJob(input.Data)
	case nlu.IntentCheckJobStatus:
		return h.renderJobStatus(input.Data)
	case nlu.IntentListBackgroundJobs:
		return h.renderJobList(input.Data)
	default:
		if summary := stringField(input.Data, "summary"); summary != "" {
			return "Done: " + summary + "."
		}
		return "Done."
	}
}

func (h *Handler) renderError(input *Input) string {
	switch input.ErrorCode {
	case "USER_NOT_FOUND":
		return "I couldn't find that user on the platform. Check the email address and try again."
	case "COURSE_NOT_FOUND":
		return "I couldn't find that course or learning plan. Try \"search courses\" to locate it."
	case "SESSION_NOT_FOUND":
		return "I couldn't find that ILT session."
	case "JOB_NOT_FOUND":
		return "There is no background job with that id. Type \"list jobs\" to see recent jobs."
	case "MESSAGE_TOO_LONG":
		return "That message is too long for me to process. Please shorten it."
	default:
		return "Something went wrong while executing your command. Please try again."
	}
}

func (h *Handler) renderUser(data map[string]interface{}) string {
	user, ok := data["user"].(map[string]interface{})
	if !ok {
		return "No matching user found."
	}
	name := strings.TrimSpace(stringField(user, "firstName") + " " + stringField(user, "lastName"))
	if name == "" {
		name = stringField(user, "email")
	}
	lines := []string{fmt.Sprintf("User: %s", name)}
	if email := stringField(user, "email"); email != "" {
		lines = append(lines, "Email: "+email)
	}
	if status := stringField(user, "status"); status != "" {
		lines = append(lines, "Status: "+status)
	}
	if team := stringField(user, "team"); team != "" {
		lines = append(lines, "Team: "+team)
	}
	return strings.Join(lines, "\n")
}

func (h *Handler) renderCourse(data map[string]interface{}) string {
	course, ok := data["course"].(map[string]interface{})
	if !ok {
		return "No matching course found."
	}
	lines := []string{fmt.Sprintf("Course: %s", stringField(course, "name"))}
	if code := stringField(course, "code"); code != "" {
		lines = append(lines, "Code: "+code)
	}
	if desc := stringField(course, "description"); desc != "" {
		lines = append(lines, desc)
	}
	return strings.Join(lines, "\n")
}

func (h *Handler) renderLearningPlan(data map[string]interface{}) string {
	plan, ok := data["learningPlan"].(map[string]interface{})
	if !ok {
		return "No matching learning plan found."
	}
	text := fmt.Sprintf("Learning plan: %s", stringField(plan, "name"))
	if ids, ok := plan["courseIds"].([]interface{}); ok && len(ids) > 0 {
		text += fmt.Sprintf(" (%d courses)", len(ids))
	}
	return text
}

func (h *Handler) renderSession(data map[string]interface{}) string {
	session, ok := data["session"].(map[string]interface{})
	if !ok {
		return "No matching ILT session found."
	}
	lines := []string{fmt.Sprintf("Session: %s", stringField(session, "name"))}
	if date := stringField(session, "date"); date != "" {
		lines = append(lines, "Date: "+date)
	}
	if loc := stringField(session, "location"); loc != "" {
		lines = append(lines, "Location: "+loc)
	}
	if instructor := stringField(session, "instructor"); instructor != "" {
		lines = append(lines, "Instructor: "+instructor)
	}
	return strings.Join(lines, "\n")
}

func (h *Handler) renderEnrollments(data map[string]interface{}) string {
	rows, _ := data["enrollments"].([]interface{})
	if len(rows) == 0 {
		return "No enrollments found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d enrollments:\n", len(rows))
	for i, row := range rows {
		if i >= h.config.MaxListItems {
			break
		}
		e, ok := row.(map[string]interface{})
		if !ok {
			continue
		}
		who := stringField(e, "email")
		if who == "" {
			who = stringField(e, "userId")
		}
		what := stringField(e, "resourceName")
		if what == "" {
			what = stringField(e, "resourceId")
		}
		line := fmt.Sprintf("- %s: %s", who, what)
		if status := stringField(e, "status"); status != "" {
			line += " (" + status + ")"
		}
		b.WriteString(line + "\n")
	}
	if _, more := data["nextOffset"]; more {
		b.WriteString("Say \"load more\" to see the next page.")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (h *Handler) renderSearchResults(data map[string]interface{}) string {
	rows, _ := data["results"].([]interface{})
	if len(rows) == 0 {
		return "No results matched your search."
	}

	var b strings.Builder
	total := len(rows)
	if v, ok := data["totalHits"].(float64); ok {
		total = int(v)
	}
	fmt.Fprintf(&b, "Found %d results:\n", total)
	for i, row := range rows {
		if i >= h.config.MaxListItems {
			break
		}
		hit, ok := row.(map[string]interface{})
		if !ok {
			continue
		}
		label := stringField(hit, "name")
		if label == "" {
			label = stringField(hit, "email")
		}
		b.WriteString("- " + label + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (h *Handler) renderBulkJob(data map[string]interface{}) string {
	jobID := stringField(data, "jobId")
	status := stringField(data, "status")
	processed := intField(data, "processed")
	failed := intField(data, "failed")

	text := fmt.Sprintf("Bulk job %s is %s: %d processed, %d failed.", jobID, status, processed, failed)
	if failed == 0 {
		text = fmt.Sprintf("Bulk job %s is %s: all %d users processed.", jobID, status, processed)
	}
	return text + fmt.Sprintf(" Ask \"check status of job %s\" anytime.", jobID)
}

func (h *Handler) renderJobStatus(data map[string]interface{}) string {
	job, ok := data["job"].(map[string]interface{})
	if !ok {
		return "There is no background job with that id."
	}
	return fmt.Sprintf("Job %s (%s) is %s: %d/%d processed, %d failed.",
		stringField(job, "id"),
		stringField(job, "type"),
		stringField(job, "status"),
		intField(job, "processed"),
		intField(job, "total"),
		intField(job, "failed"))
}

func (h *Handler) renderJobList(data map[string]interface{}) string {
	rows, _ := data["jobs"].([]interface{})
	if len(rows) == 0 {
		return "There are no recent background jobs."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d recent jobs:\n", len(rows))
	for _, row := range rows {
		job, ok := row.(map[string]interface{})
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "- %s (%s): %s\n",
			stringField(job, "id"), stringField(job, "type"), stringField(job, "status"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func stringField(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func intField(m map[string]interface{}, key string) int {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, message string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey": job.Key,
		"error":  message,
	})
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, "RESPONSE_BUILD_ERROR").Inc()

	_, _ = client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(0).
		ErrorMessage(message).
		Send(context.Background())
}
