package queries

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, r io.Reader) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(r).Decode(&body))
	return body
}

func TestBuildQuery_Courses(t *testing.T) {
	cq := CatalogQuery{Index: "lms-courses", Kind: KindCourses, Term: "safety"}
	cq.Pagination.Size = 20

	req, err := BuildQuery(cq)
	require.NoError(t, err)
	assert.Equal(t, []string{"lms-courses"}, req.Index)

	body := decodeBody(t, req.Body)
	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})

	must := boolQuery["must"].([]interface{})
	require.Len(t, must, 1)
	mm := must[0].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "safety", mm["query"])

	filter := boolQuery["filter"].([]interface{})
	term := filter[0].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, "courses", term["docType"])
}

func TestBuildQuery_SessionsWithDateRange(t *testing.T) {
	cq := CatalogQuery{
		Index:    "lms-courses",
		Kind:     KindSessions,
		Term:     "onboarding",
		DateFrom: "2025-06-01",
	}

	req, err := BuildQuery(cq)
	require.NoError(t, err)

	body := decodeBody(t, req.Body)
	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	filter := boolQuery["filter"].([]interface{})
	require.Len(t, filter, 2)

	rangeClause := filter[1].(map[string]interface{})["range"].(map[string]interface{})
	bounds := rangeClause["date"].(map[string]interface{})
	assert.Equal(t, "2025-06-01", bounds["gte"])
	assert.NotContains(t, bounds, "lte")
}

func TestBuildQuery_Users(t *testing.T) {
	cq := CatalogQuery{Index: "lms-users", Kind: KindUsers, Term: "jane"}

	req, err := BuildQuery(cq)
	require.NoError(t, err)

	body := decodeBody(t, req.Body)
	mm := body["query"].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "jane", mm["query"])
	assert.Contains(t, mm["fields"], "email^3")
}

func TestBuildQuery_Validation(t *testing.T) {
	_, err := BuildQuery(CatalogQuery{Kind: KindCourses, Term: "x"})
	assert.ErrorIs(t, err, ErrMissingIndex)

	_, err = BuildQuery(CatalogQuery{Index: "lms-courses", Kind: KindCourses})
	assert.ErrorIs(t, err, ErrMissingTerm)

	_, err = BuildQuery(CatalogQuery{Index: "lms-courses", Kind: "bogus", Term: "x"})
	assert.ErrorIs(t, err, ErrUnknownSearchKind)
}
