// internal/workers/assistant/execute-command/handler.go
package executecommand

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"

	"lms-assistant/internal/audit"
	commonerrors "lms-assistant/internal/common/errors"
	"lms-assistant/internal/common/logger"
	"lms-assistant/internal/common/metrics"
	"lms-assistant/internal/jobs"
	"lms-assistant/internal/lms"
	"lms-assistant/internal/nlu"
)

const (
	TaskType = "execute-command"
)

var (
	ErrUnsupportedIntent = errors.New("UNSUPPORTED_INTENT")
	ErrMissingEntity     = errors.New("MISSING_ENTITY")
	ErrUserNotFound      = errors.New("USER_NOT_FOUND")
	ErrCourseNotFound    = errors.New("COURSE_NOT_FOUND")
	ErrSessionNotFound   = errors.New("SESSION_NOT_FOUND")
	ErrJobNotFound       = errors.New("JOB_NOT_FOUND")
	ErrPlatformFailed    = errors.New("LMS_API_FAILED")
)

type Handler struct {
	config *Config
	lms    lms.Client
	jobs   *jobs.Store
	audit  *audit.Store
	logger logger.Logger
}

func NewHandler(config *Config, client lms.Client, jobStore *jobs.Store, auditStore *audit.Store, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		lms:    client,
		jobs:   jobStore,
		audit:  auditStore,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, fmt.Errorf("parse input: %w", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	h.writeAudit(ctx, &input, err)
	if err != nil {
		retries := int32(0)
		if errors.Is(err, ErrPlatformFailed) {
			retries = 2
		}
		h.failJob(client, job, err, retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	out := &Output{Intent: input.Intent}

	var err error
	switch input.Intent {
	case nlu.IntentEnrollUserCourse, nlu.IntentEnrollUserLearningPlan, nlu.IntentEnrollUserSession:
		err = h.enroll(ctx, input.Entities, out)
	case nlu.IntentUnenrollUserCourse, nlu.IntentUnenrollUserLearningPlan, nlu.IntentUnenrollUserSession:
		err = h.unenroll(ctx, input.Entities, out)
	case nlu.IntentUpdateValidity:
		err = h.updateValidity(ctx, input.Entities, out)
	case nlu.IntentMarkAttendance:
		err = h.markAttendance(ctx, input.Entities, out)
	case nlu.IntentScheduleSession:
		err = h.scheduleSession(ctx, input.Entities, out)
	case nlu.IntentGetUserInfo:
		err = h.getUserInfo(ctx, input.Entities, out)
	case nlu.IntentGetCourseInfo:
		err = h.getCourseInfo(ctx, input.Entities, out)
	case nlu.IntentGetLearningPlanInfo:
		err = h.getLearningPlanInfo(ctx, input.Entities, out)
	case nlu.IntentGetSessionInfo:
		err = h.getSessionInfo(ctx, input.Entities, out)
	case nlu.IntentGetUserEnrollments:
		err = h.listUserEnrollments(ctx, input.Entities, 0, out)
	case nlu.IntentGetCourseEnrollments:
		err = h.listCourseEnrollments(ctx, input.Entities, 0, out)
	case nlu.IntentLoadMoreResults:
		err = h.loadMore(ctx, input, out)
	case nlu.IntentCheckJobStatus:
		err = h.checkJobStatus(ctx, input.Entities, out)
	case nlu.IntentListBackgroundJobs:
		err = h.listBackgroundJobs(ctx, out)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedIntent, input.Intent)
	}
	if err != nil {
		return nil, err
	}

	out.Success = true
	return out, nil
}

func (h *Handler) enroll(ctx context.Context, ents nlu.Entities, out *Output) error {
	req, err := enrollmentRequest(ents)
	if err != nil {
		return err
	}
	if err := h.lms.Enroll(ctx, req); err != nil {
		return classifyAs(err, ErrUserNotFound)
	}
	out.Summary = fmt.Sprintf("enrolled %s in %s", req.Email, req.ResourceName)
	return nil
}

func (h *Handler) unenroll(ctx context.Context, ents nlu.Entities, out *Output) error {
	req, err := enrollmentRequest(ents)
	if err != nil {
		return err
	}
	if err := h.lms.Unenroll(ctx, req); err != nil {
		return classifyAs(err, ErrUserNotFound)
	}
	out.Summary = fmt.Sprintf("unenrolled %s from %s", req.Email, req.ResourceName)
	return nil
}

func (h *Handler) updateValidity(ctx context.Context, ents nlu.Entities, out *Output) error {
	req, err := enrollmentRequest(ents)
	if err != nil {
		return err
	}
	if req.StartValidity == "" && req.EndValidity == "" {
		return fmt.Errorf("%w: validity dates", ErrMissingEntity)
	}
	if err := h.lms.UpdateEnrollmentValidity(ctx, req); err != nil {
		return classifyAs(err, ErrUserNotFound)
	}
	out.Summary = fmt.Sprintf("updated validity for %s on %s", req.Email, req.ResourceName)
	return nil
}

func (h *Handler) markAttendance(ctx context.Context, ents nlu.Entities, out *Output) error {
	if ents.Email == "" {
		return fmt.Errorf("%w: email", ErrMissingEntity)
	}
	sessionRef := ents.SessionID
	if sessionRef == "" {
		sessionRef = ents.SessionName
	}
	if sessionRef == "" {
		return fmt.Errorf("%w: session", ErrMissingEntity)
	}
	if err := h.lms.MarkAttendance(ctx, ents.Email, sessionRef); err != nil {
		return classifyAs(err, ErrSessionNotFound)
	}
	out.Summary = fmt.Sprintf("marked %s as attended for %s", ents.Email, sessionRef)
	return nil
}

func (h *Handler) scheduleSession(ctx context.Context, ents nlu.Entities, out *Output) error {
	if ents.SessionName == "" {
		return fmt.Errorf("%w: session name", ErrMissingEntity)
	}
	if ents.SessionDate == "" {
		return fmt.Errorf("%w: session date", ErrMissingEntity)
	}
	session, err := h.lms.ScheduleSession(ctx, lms.SessionRequest{
		Name:     ents.SessionName,
		Date:     ents.SessionDate,
		CourseID: ents.CourseID,
	})
	if err != nil {
		return classifyAs(err, ErrCourseNotFound)
	}
	out.Session = session
	out.Summary = fmt.Sprintf("scheduled %s on %s", session.Name, session.Date)
	return nil
}

func (h *Handler) getUserInfo(ctx context.Context, ents nlu.Entities, out *Output) error {
	var err error
	switch {
	case ents.Email != "":
		out.User, err = h.lms.GetUserByEmail(ctx, ents.Email)
	case ents.UserID != "":
		out.User, err = h.lms.GetUserByID(ctx, ents.UserID)
	default:
		return fmt.Errorf("%w: user reference", ErrMissingEntity)
	}
	if err != nil {
		return classifyAs(err, ErrUserNotFound)
	}
	return nil
}

func (h *Handler) getCourseInfo(ctx context.Context, ents nlu.Entities, out *Output) error {
	ref := ents.CourseID
	if ref == "" {
		ref = ents.CourseName
	}
	if ref == "" {
		return fmt.Errorf("%w: course reference", ErrMissingEntity)
	}
	course, err := h.lms.GetCourse(ctx, ref)
	if err != nil {
		return classifyAs(err, ErrCourseNotFound)
	}
	out.Course = course
	return nil
}

func (h *Handler) getLearningPlanInfo(ctx context.Context, ents nlu.Entities, out *Output) error {
	if ents.LearningPlanName == "" {
		return fmt.Errorf("%w: learning plan name", ErrMissingEntity)
	}
	plan, err := h.lms.GetLearningPlan(ctx, ents.LearningPlanName)
	if err != nil {
		return classifyAs(err, ErrCourseNotFound)
	}
	out.LearningPlan = plan
	return nil
}

func (h *Handler) getSessionInfo(ctx context.Context, ents nlu.Entities, out *Output) error {
	ref := ents.SessionID
	if ref == "" {
		ref = ents.SessionName
	}
	if ref == "" {
		return fmt.Errorf("%w: session reference", ErrMissingEntity)
	}
	session, err := h.lms.GetSession(ctx, ref)
	if err != nil {
		return classifyAs(err, ErrSessionNotFound)
	}
	out.Session = session
	return nil
}

func (h *Handler) listUserEnrollments(ctx context.Context, ents nlu.Entities, offset int, out *Output) error {
	ref := ents.Email
	if ref == "" {
		ref = ents.UserID
	}
	if ref == "" {
		return fmt.Errorf("%w: user reference", ErrMissingEntity)
	}
	enrollments, err := h.lms.ListUserEnrollments(ctx, ref, offset)
	if err != nil {
		return classifyAs(err, ErrUserNotFound)
	}
	out.Enrollments = enrollments
	if len(enrollments) >= h.config.PageSize {
		next := offset + len(enrollments)
		out.NextOffset = &next
	}
	return nil
}

func (h *Handler) listCourseEnrollments(ctx context.Context, ents nlu.Entities, offset int, out *Output) error {
	ref := ents.CourseID
	if ref == "" {
		ref = ents.CourseName
	}
	if ref == "" {
		return fmt.Errorf("%w: course reference", ErrMissingEntity)
	}
	enrollments, err := h.lms.ListCourseEnrollments(ctx, ref, offset)
	if err != nil {
		return classifyAs(err, ErrCourseNotFound)
	}
	out.Enrollments = enrollments
	if len(enrollments) >= h.config.PageSize {
		next := offset + len(enrollments)
		out.NextOffset = &next
	}
	return nil
}

// loadMore re-runs the previous listing at the requested offset.
func (h *Handler) loadMore(ctx context.Context, input *Input, out *Output) error {
	if input.Prior == nil {
		return fmt.Errorf("%w: no previous listing to page", ErrMissingEntity)
	}
	offset := 0
	if input.Entities.Offset != nil {
		offset = *input.Entities.Offset
	}
	switch input.Prior.Intent {
	case nlu.IntentGetUserEnrollments:
		return h.listUserEnrollments(ctx, input.Prior.Entities, offset, out)
	case nlu.IntentGetCourseEnrollments:
		return h.listCourseEnrollments(ctx, input.Prior.Entities, offset, out)
	default:
		return fmt.Errorf("%w: %s is not pageable", ErrUnsupportedIntent, input.Prior.Intent)
	}
}

func (h *Handler) checkJobStatus(ctx context.Context, ents nlu.Entities, out *Output) error {
	if ents.JobID == "" {
		return fmt.Errorf("%w: job id", ErrMissingEntity)
	}
	job, err := h.jobs.Get(ctx, ents.JobID)
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %s", ErrJobNotFound, ents.JobID)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPlatformFailed, err)
	}
	out.Job = job
	return nil
}

func (h *Handler) listBackgroundJobs(ctx context.Context, out *Output) error {
	list, err := h.jobs.List(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPlatformFailed, err)
	}
	out.Jobs = list
	return nil
}

// enrollmentRequest maps extracted entities onto the platform mutation shape.
func enrollmentRequest(ents nlu.Entities) (lms.EnrollmentRequest, error) {
	req := lms.EnrollmentRequest{
		Email:          ents.Email,
		ResourceType:   string(ents.ResourceType),
		AssignmentType: string(ents.AssignmentType),
		StartValidity:  ents.StartValidity,
		EndValidity:    ents.EndValidity,
	}
	if req.Email == "" {
		return req, fmt.Errorf("%w: email", ErrMissingEntity)
	}

	switch ents.ResourceType {
	case nlu.ResourceLearningPlan:
		req.ResourceName = ents.LearningPlanName
	case nlu.ResourceILTSession:
		req.ResourceID = ents.SessionID
		req.ResourceName = ents.SessionName
	default:
		req.ResourceType = string(nlu.ResourceCourse)
		req.ResourceID = ents.CourseID
		req.ResourceName = ents.CourseName
	}
	if req.ResourceID == "" && req.ResourceName == "" {
		return req, fmt.Errorf("%w: resource reference", ErrMissingEntity)
	}
	return req, nil
}

// classifyAs maps a platform error onto the worker's sentinel set, using
// notFound for 404s.
func classifyAs(err, notFound error) error {
	if lms.IsNotFound(err) {
		return fmt.Errorf("%w: %v", notFound, err)
	}
	return fmt.Errorf("%w: %v", ErrPlatformFailed, err)
}

func (h *Handler) writeAudit(ctx context.Context, input *Input, execErr error) {
	if h.audit == nil {
		return
	}

	rec := &audit.Record{
		AdminEmail: input.AdminEmail,
		Message:    input.Message,
		Intent:     input.Intent,
		Outcome:    audit.OutcomeSuccess,
	}
	if data, err := json.Marshal(input.Entities); err == nil {
		rec.Entities = data
	}
	if execErr != nil {
		rec.Outcome = audit.OutcomeFailure
		rec.Error = execErr.Error()
	}

	if err := h.audit.Write(ctx, rec); err != nil {
		h.logger.Warn("audit write failed", map[string]interface{}{"error": err.Error()})
	}
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error, retries int32) {
	errorCode := "UNKNOWN_ERROR"
	switch {
	case errors.Is(err, ErrUnsupportedIntent):
		errorCode = "UNSUPPORTED_INTENT"
	case errors.Is(err, ErrMissingEntity):
		errorCode = "MISSING_ENTITY"
	case errors.Is(err, ErrUserNotFound):
		errorCode = "USER_NOT_FOUND"
	case errors.Is(err, ErrCourseNotFound):
		errorCode = "COURSE_NOT_FOUND"
	case errors.Is(err, ErrSessionNotFound):
		errorCode = "SESSION_NOT_FOUND"
	case errors.Is(err, ErrJobNotFound):
		errorCode = "JOB_NOT_FOUND"
	case errors.Is(err, ErrPlatformFailed):
		errorCode = "LMS_API_FAILED"
	}

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":        job.Key,
		"error":         err.Error(),
		"errorCode":     errorCode,
		"errorCategory": commonerrors.GetErrorCategory(commonerrors.ErrorCode(errorCode)),
	})
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	_, _ = client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(retries).
		ErrorMessage(errorCode + ": " + err.Error()).
		Send(context.Background())
}

// Execute exposes the dispatch path for direct callers and tests.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
