package queries

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrUnknownSearchKind = errors.New("unknown search kind")
	ErrMissingIndex      = errors.New("index name is required")
	ErrMissingTerm       = errors.New("search term is required")
)

// Kind selects which catalog query gets built.
type Kind string

const (
	KindCourses       Kind = "courses"
	KindLearningPlans Kind = "learning_plans"
	KindSessions      Kind = "sessions"
	KindUsers         Kind = "users"
)

// CatalogQuery describes one search against the LMS indexes.
type CatalogQuery struct {
	Index      string
	Kind       Kind
	Term       string
	DateFrom   string // YYYY-MM-DD, sessions only
	DateTo     string
	Pagination struct {
		From int
		Size int
	}
}

// BuildQuery assembles the Elasticsearch search request for a catalog query.
func BuildQuery(cq CatalogQuery) (*esapi.SearchRequest, error) {
	if cq.Index == "" {
		return nil, ErrMissingIndex
	}
	if cq.Term == "" {
		return nil, ErrMissingTerm
	}

	var queryBody map[string]interface{}
	switch cq.Kind {
	case KindCourses, KindLearningPlans:
		queryBody = buildCatalogSearchQuery(cq)
	case KindSessions:
		queryBody = buildSessionSearchQuery(cq)
	case KindUsers:
		queryBody = buildUserSearchQuery(cq)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSearchKind, cq.Kind)
	}

	body, _ := json.Marshal(queryBody)

	req := esapi.SearchRequest{
		Index: []string{cq.Index},
		Body:  strings.NewReader(string(body)),
		From:  &cq.Pagination.From,
		Size:  &cq.Pagination.Size,
	}
	return &req, nil
}

func buildCatalogSearchQuery(cq CatalogQuery) map[string]interface{} {
	must := []interface{}{
		map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  cq.Term,
				"fields": []string{"name^3", "code^2", "description"},
				"type":   "best_fields",
			},
		},
	}
	filter := []interface{}{
		map[string]interface{}{
			"term": map[string]interface{}{"docType": string(cq.Kind)},
		},
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
	}
}

func buildSessionSearchQuery(cq CatalogQuery) map[string]interface{} {
	must := []interface{}{
		map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  cq.Term,
				"fields": []string{"name^3", "instructor", "location"},
				"type":   "best_fields",
			},
		},
	}
	filter := []interface{}{
		map[string]interface{}{
			"term": map[string]interface{}{"docType": string(KindSessions)},
		},
	}

	if cq.DateFrom != "" || cq.DateTo != "" {
		bounds := map[string]interface{}{}
		if cq.DateFrom != "" {
			bounds["gte"] = cq.DateFrom
		}
		if cq.DateTo != "" {
			bounds["lte"] = cq.DateTo
		}
		filter = append(filter, map[string]interface{}{
			"range": map[string]interface{}{"date": bounds},
		})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
	}
}

func buildUserSearchQuery(cq CatalogQuery) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  cq.Term,
				"fields": []string{"email^3", "firstName^2", "lastName^2", "team"},
				"type":   "best_fields",
			},
		},
	}
}
