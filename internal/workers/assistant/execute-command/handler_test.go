// internal/workers/assistant/execute-command/handler_test.go
package executecommand

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lms-assistant/internal/common/logger"
	"lms-assistant/internal/jobs"
	"lms-assistant/internal/lms"
	"lms-assistant/internal/models"
	"lms-assistant/internal/nlu"
)

// fakeLMS implements lms.Client with per-call hooks.
type fakeLMS struct {
	getUserByEmail        func(email string) (*models.User, error)
	getCourse             func(ref string) (*models.Course, error)
	enroll                func(req lms.EnrollmentRequest) error
	unenroll              func(req lms.EnrollmentRequest) error
	updateValidity        func(req lms.EnrollmentRequest) error
	listUserEnrollments   func(ref string, offset int) ([]models.Enrollment, error)
	listCourseEnrollments func(ref string, offset int) ([]models.Enrollment, error)
	markAttendance        func(email, sessionRef string) error
	scheduleSession       func(req lms.SessionRequest) (*models.ILTSession, error)
}

func (f *fakeLMS) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return f.getUserByEmail(email)
}
func (f *fakeLMS) GetUserByID(_ context.Context, id string) (*models.User, error) {
	return &models.User{ID: id}, nil
}
func (f *fakeLMS) ListTeamMembers(_ context.Context, team string) ([]models.User, error) {
	return nil, nil
}
func (f *fakeLMS) GetCourse(_ context.Context, ref string) (*models.Course, error) {
	return f.getCourse(ref)
}
func (f *fakeLMS) GetLearningPlan(_ context.Context, name string) (*models.LearningPlan, error) {
	return &models.LearningPlan{ID: "lp-1", Name: name}, nil
}
func (f *fakeLMS) GetSession(_ context.Context, ref string) (*models.ILTSession, error) {
	return &models.ILTSession{ID: "s-1", Name: ref}, nil
}
func (f *fakeLMS) Enroll(_ context.Context, req lms.EnrollmentRequest) error { return f.enroll(req) }
func (f *fakeLMS) Unenroll(_ context.Context, req lms.EnrollmentRequest) error {
	return f.unenroll(req)
}
func (f *fakeLMS) UpdateEnrollmentValidity(_ context.Context, req lms.EnrollmentRequest) error {
	return f.updateValidity(req)
}
func (f *fakeLMS) ListUserEnrollments(_ context.Context, ref string, offset int) ([]models.Enrollment, error) {
	return f.listUserEnrollments(ref, offset)
}
func (f *fakeLMS) ListCourseEnrollments(_ context.Context, ref string, offset int) ([]models.Enrollment, error) {
	return f.listCourseEnrollments(ref, offset)
}
func (f *fakeLMS) MarkAttendance(_ context.Context, email, sessionRef string) error {
	return f.markAttendance(email, sessionRef)
}
func (f *fakeLMS) ScheduleSession(_ context.Context, req lms.SessionRequest) (*models.ILTSession, error) {
	return f.scheduleSession(req)
}

func newTestHandler(t *testing.T, client lms.Client) (*Handler, *jobs.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := jobs.NewStore(rdb, time.Hour, logger.NewNoOpLogger())
	return NewHandler(LoadConfig(), client, store, nil, logger.NewTestLogger(t)), store
}

func TestExecute_EnrollUserInCourse(t *testing.T) {
	var captured lms.EnrollmentRequest
	client := &fakeLMS{
		enroll: func(req lms.EnrollmentRequest) error {
			captured = req
			return nil
		},
	}
	h, _ := newTestHandler(t, client)

	out, err := h.Execute(context.Background(), &Input{
		Intent: nlu.IntentEnrollUserCourse,
		Entities: nlu.Entities{
			Email:          "John.Doe@acme.com",
			CourseName:     "Safety Basics",
			ResourceType:   nlu.ResourceCourse,
			Action:         nlu.ActionEnroll,
			AssignmentType: nlu.AssignmentMandatory,
			StartValidity:  "2025-01-01",
		},
	})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "John.Doe@acme.com", captured.Email)
	assert.Equal(t, "Safety Basics", captured.ResourceName)
	assert.Equal(t, "course", captured.ResourceType)
	assert.Equal(t, "mandatory", captured.AssignmentType)
	assert.Equal(t, "2025-01-01", captured.StartValidity)
}

func TestExecute_EnrollMissingEmail(t *testing.T) {
	h, _ := newTestHandler(t, &fakeLMS{})

	_, err := h.Execute(context.Background(), &Input{
		Intent:   nlu.IntentEnrollUserCourse,
		Entities: nlu.Entities{CourseName: "Safety Basics"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingEntity)
}

func TestExecute_UnenrollFromLearningPlan(t *testing.T) {
	var captured lms.EnrollmentRequest
	client := &fakeLMS{
		unenroll: func(req lms.EnrollmentRequest) error {
			captured = req
			return nil
		},
	}
	h, _ := newTestHandler(t, client)

	out, err := h.Execute(context.Background(), &Input{
		Intent: nlu.IntentUnenrollUserLearningPlan,
		Entities: nlu.Entities{
			Email:            "bob@acme.com",
			LearningPlanName: "Onboarding",
			ResourceType:     nlu.ResourceLearningPlan,
			Action:           nlu.ActionUnenroll,
		},
	})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "learning_plan", captured.ResourceType)
	assert.Equal(t, "Onboarding", captured.ResourceName)
}

func TestExecute_GetUserInfo(t *testing.T) {
	client := &fakeLMS{
		getUserByEmail: func(email string) (*models.User, error) {
			return &models.User{ID: "u-7", Email: email, FirstName: "Jane"}, nil
		},
	}
	h, _ := newTestHandler(t, client)

	out, err := h.Execute(context.Background(), &Input{
		Intent:   nlu.IntentGetUserInfo,
		Entities: nlu.Entities{Email: "jane@acme.com"},
	})
	require.NoError(t, err)
	require.NotNil(t, out.User)
	assert.Equal(t, "u-7", out.User.ID)
}

func TestExecute_UpdateValidityRequiresDates(t *testing.T) {
	h, _ := newTestHandler(t, &fakeLMS{})

	_, err := h.Execute(context.Background(), &Input{
		Intent: nlu.IntentUpdateValidity,
		Entities: nlu.Entities{
			Email:        "bob@acme.com",
			CourseName:   "Safety Basics",
			ResourceType: nlu.ResourceCourse,
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingEntity)
}

func TestExecute_ListUserEnrollmentsPaging(t *testing.T) {
	page := make([]models.Enrollment, 10)
	client := &fakeLMS{
		listUserEnrollments: func(ref string, offset int) ([]models.Enrollment, error) {
			assert.Equal(t, "bob@acme.com", ref)
			return page, nil
		},
	}
	h, _ := newTestHandler(t, client)

	out, err := h.Execute(context.Background(), &Input{
		Intent:   nlu.IntentGetUserEnrollments,
		Entities: nlu.Entities{Email: "bob@acme.com"},
	})
	require.NoError(t, err)
	assert.Len(t, out.Enrollments, 10)
	require.NotNil(t, out.NextOffset)
	assert.Equal(t, 10, *out.NextOffset)
}

func TestExecute_LoadMoreReplaysPriorListing(t *testing.T) {
	var gotOffset int
	client := &fakeLMS{
		listCourseEnrollments: func(ref string, offset int) ([]models.Enrollment, error) {
			gotOffset = offset
			return []models.Enrollment{{UserID: "u-1"}}, nil
		},
	}
	h, _ := newTestHandler(t, client)

	offset := 10
	out, err := h.Execute(context.Background(), &Input{
		Intent:   nlu.IntentLoadMoreResults,
		Entities: nlu.Entities{LoadMore: true, Offset: &offset},
		Prior: &PriorCommand{
			Intent:   nlu.IntentGetCourseEnrollments,
			Entities: nlu.Entities{CourseName: "Safety Basics"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 10, gotOffset)
	assert.Len(t, out.Enrollments, 1)
}

func TestExecute_LoadMoreWithoutPrior(t *testing.T) {
	h, _ := newTestHandler(t, &fakeLMS{})

	_, err := h.Execute(context.Background(), &Input{
		Intent:   nlu.IntentLoadMoreResults,
		Entities: nlu.Entities{LoadMore: true},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingEntity)
}

func TestExecute_JobStatus(t *testing.T) {
	h, store := newTestHandler(t, &fakeLMS{})
	ctx := context.Background()

	job, err := store.Create(ctx, "bulk_enroll_course", 5)
	require.NoError(t, err)

	out, err := h.Execute(ctx, &Input{
		Intent:   nlu.IntentCheckJobStatus,
		Entities: nlu.Entities{JobID: job.ID},
	})
	require.NoError(t, err)
	require.NotNil(t, out.Job)
	assert.Equal(t, job.ID, out.Job.ID)

	_, err = h.Execute(ctx, &Input{
		Intent:   nlu.IntentCheckJobStatus,
		Entities: nlu.Entities{JobID: "missing"},
	})
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestExecute_JobStatusStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := jobs.NewStore(rdb, time.Hour, logger.NewNoOpLogger())
	h := NewHandler(LoadConfig(), &fakeLMS{}, store, nil, logger.NewTestLogger(t))

	// A store outage is not "job not found": the admin would retry a job
	// that still exists.
	mr.SetError("LOADING Redis is loading the dataset in memory")

	_, err := h.Execute(context.Background(), &Input{
		Intent:   nlu.IntentCheckJobStatus,
		Entities: nlu.Entities{JobID: "3b2e8a50-9c1d-4f6a-b7e2-0d5c4a1f9e88"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPlatformFailed)
	assert.NotErrorIs(t, err, ErrJobNotFound)
}

func TestExecute_ListBackgroundJobs(t *testing.T) {
	h, store := newTestHandler(t, &fakeLMS{})
	ctx := context.Background()

	_, err := store.Create(ctx, "bulk_enroll_course", 5)
	require.NoError(t, err)
	_, err = store.Create(ctx, "bulk_unenroll_course", 2)
	require.NoError(t, err)

	out, err := h.Execute(ctx, &Input{Intent: nlu.IntentListBackgroundJobs})
	require.NoError(t, err)
	assert.Len(t, out.Jobs, 2)
}

func TestExecute_UnsupportedIntent(t *testing.T) {
	h, _ := newTestHandler(t, &fakeLMS{})

	_, err := h.Execute(context.Background(), &Input{Intent: "search_courses"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedIntent)
}
