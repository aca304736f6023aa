// internal/lms/client.go

// Package lms is the HTTP client for the learning platform's admin API. The
// workers depend on the Client interface; the rule engine never touches this
// package.
package lms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"lms-assistant/internal/common/config"
	"lms-assistant/internal/models"
)

// EnrollmentRequest describes one enrollment mutation.
type EnrollmentRequest struct {
	Email          string `json:"email"`
	ResourceType   string `json:"resourceType"`
	ResourceID     string `json:"resourceId,omitempty"`
	ResourceName   string `json:"resourceName,omitempty"`
	AssignmentType string `json:"assignmentType,omitempty"`
	StartValidity  string `json:"startValidity,omitempty"`
	EndValidity    string `json:"endValidity,omitempty"`
}

// SessionRequest describes a new ILT session.
type SessionRequest struct {
	Name     string `json:"name"`
	Date     string `json:"date"`
	CourseID string `json:"courseId,omitempty"`
}

// Client is the platform surface the workers dispatch against.
type Client interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListTeamMembers(ctx context.Context, team string) ([]models.User, error)

	GetCourse(ctx context.Context, nameOrID string) (*models.Course, error)
	GetLearningPlan(ctx context.Context, name string) (*models.LearningPlan, error)
	GetSession(ctx context.Context, nameOrID string) (*models.ILTSession, error)

	Enroll(ctx context.Context, req EnrollmentRequest) error
	Unenroll(ctx context.Context, req EnrollmentRequest) error
	UpdateEnrollmentValidity(ctx context.Context, req EnrollmentRequest) error
	ListUserEnrollments(ctx context.Context, userRef string, offset int) ([]models.Enrollment, error)
	ListCourseEnrollments(ctx context.Context, courseRef string, offset int) ([]models.Enrollment, error)

	MarkAttendance(ctx context.Context, email, sessionRef string) error
	ScheduleSession(ctx context.Context, req SessionRequest) (*models.ILTSession, error)
}

// HTTPClient talks to the platform REST API with bearer-token auth.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	tokens     *tokenManager
}

// NewHTTPClient builds a client from LMS configuration.
func NewHTTPClient(cfg config.LMSConfig) *HTTPClient {
	hc := &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Millisecond}
	return &HTTPClient{
		baseURL:    cfg.BaseURL,
		httpClient: hc,
		tokens:     newTokenManager(cfg, hc),
	}
}

// apiError carries the platform status code so callers can classify.
type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("lms api status %d: %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a platform 404.
func IsNotFound(err error) bool {
	var apiErr *apiError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("lms auth: %w", err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("lms request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apiError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *HTTPClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	path := "/api/users/lookup?email=" + url.QueryEscape(email)
	if err := c.do(ctx, http.MethodGet, path, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *HTTPClient) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *HTTPClient) ListTeamMembers(ctx context.Context, team string) ([]models.User, error) {
	var out struct {
		Users []models.User `json:"users"`
	}
	path := "/api/teams/" + url.PathEscape(team) + "/members"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *HTTPClient) GetCourse(ctx context.Context, nameOrID string) (*models.Course, error) {
	var course models.Course
	path := "/api/courses/lookup?q=" + url.QueryEscape(nameOrID)
	if err := c.do(ctx, http.MethodGet, path, nil, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *HTTPClient) GetLearningPlan(ctx context.Context, name string) (*models.LearningPlan, error) {
	var plan models.LearningPlan
	path := "/api/learning-plans/lookup?q=" + url.QueryEscape(name)
	if err := c.do(ctx, http.MethodGet, path, nil, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (c *HTTPClient) GetSession(ctx context.Context, nameOrID string) (*models.ILTSession, error) {
	var session models.ILTSession
	path := "/api/sessions/lookup?q=" + url.QueryEscape(nameOrID)
	if err := c.do(ctx, http.MethodGet, path, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *HTTPClient) Enroll(ctx context.Context, req EnrollmentRequest) error {
	return c.do(ctx, http.MethodPost, "/api/enrollments", req, nil)
}

func (c *HTTPClient) Unenroll(ctx context.Context, req EnrollmentRequest) error {
	return c.do(ctx, http.MethodDelete, "/api/enrollments", req, nil)
}

func (c *HTTPClient) UpdateEnrollmentValidity(ctx context.Context, req EnrollmentRequest) error {
	return c.do(ctx, http.MethodPatch, "/api/enrollments/validity", req, nil)
}

func (c *HTTPClient) ListUserEnrollments(ctx context.Context, userRef string, offset int) ([]models.Enrollment, error) {
	var out struct {
		Enrollments []models.Enrollment `json:"enrollments"`
	}
	path := fmt.Sprintf("/api/users/%s/enrollments?offset=%d", url.PathEscape(userRef), offset)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Enrollments, nil
}

func (c *HTTPClient) ListCourseEnrollments(ctx context.Context, courseRef string, offset int) ([]models.Enrollment, error) {
	var out struct {
		Enrollments []models.Enrollment `json:"enrollments"`
	}
	path := fmt.Sprintf("/api/courses/%s/enrollments?offset=%d", url.PathEscape(courseRef), offset)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Enrollments, nil
}

func (c *HTTPClient) MarkAttendance(ctx context.Context, email, sessionRef string) error {
	body := map[string]string{"email": email, "session": sessionRef}
	return c.do(ctx, http.MethodPost, "/api/sessions/attendance", body, nil)
}

func (c *HTTPClient) ScheduleSession(ctx context.Context, req SessionRequest) (*models.ILTSession, error) {
	var session models.ILTSession
	if err := c.do(ctx, http.MethodPost, "/api/sessions", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}
