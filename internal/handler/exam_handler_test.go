package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluentprep/fluentprep-backend/internal/model"
	"github.com/fluentprep/fluentprep-backend/internal/response"
)

type fakeExamCatalog struct {
	exams []model.MockExam
	total int
	err   error

	gotPage    int
	gotPerPage int
}

func (f *fakeExamCatalog) ListMockExams(_ context.Context, page, perPage int) ([]model.MockExam, int, error) {
	f.gotPage = page
	f.gotPerPage = perPage
	return f.exams, f.total, f.err
}

func listExams(t *testing.T, catalog *fakeExamCatalog, url string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/exams", NewExamHandler(catalog).List)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	r.ServeHTTP(w, req)

	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestExamListPaginates(t *testing.T) {
	catalog := &fakeExamCatalog{
		exams: []model.MockExam{
			{ID: uuid.New(), Title: "Full Mock 2", CreatedAt: time.Now()},
			{ID: uuid.New(), Title: "Full Mock 1", CreatedAt: time.Now()},
		},
		total: 5,
	}

	w, body := listExams(t, catalog, "/exams?page=2&per_page=2")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, catalog.gotPage)
	assert.Equal(t, 2, catalog.gotPerPage)

	require.NotNil(t, body.Pagination)
	assert.Equal(t, 2, body.Pagination.Page)
	assert.Equal(t, 2, body.Pagination.PerPage)
	assert.Equal(t, 5, body.Pagination.TotalItems)
	assert.Equal(t, 3, body.Pagination.TotalPages)
}

func TestExamListDefaultsAndClampsQueryParams(t *testing.T) {
	catalog := &fakeExamCatalog{}

	_, body := listExams(t, catalog, "/exams?page=0&per_page=9999")
	assert.Equal(t, 1, catalog.gotPage)
	assert.Equal(t, 100, catalog.gotPerPage)
	assert.Equal(t, 0, body.Pagination.TotalPages)

	_, _ = listExams(t, catalog, "/exams")
	assert.Equal(t, 1, catalog.gotPage)
	assert.Equal(t, 20, catalog.gotPerPage)
}

func TestExamListEmptyCatalogIsAnEmptyArray(t *testing.T) {
	w, _ := listExams(t, &fakeExamCatalog{}, "/exams")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

func TestExamListCatalogFailure(t *testing.T) {
	w, body := listExams(t, &fakeExamCatalog{err: errors.New("db down")}, "/exams")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, response.ErrInternal, body.Error.Code)
}
