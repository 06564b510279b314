package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/course-analytics-api/internal/dto"
	"github.com/noah-isme/course-analytics-api/internal/models"
	"github.com/noah-isme/course-analytics-api/internal/service"
	"github.com/noah-isme/course-analytics-api/pkg/response"
)

type jobProfileRepoMock struct {
	stored map[int64]string
}

func (m *jobProfileRepoMock) Get(_ context.Context, courseID int64) (string, bool, error) {
	value, ok := m.stored[courseID]
	return value, ok, nil
}

func (m *jobProfileRepoMock) Save(_ context.Context, courseID int64, value string) error {
	if m.stored == nil {
		m.stored = make(map[int64]string)
	}
	m.stored[courseID] = value
	return nil
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func newJobProfileHandler(repo service.JobProfileRepository) *JobProfileHandler {
	svc := service.NewJobProfileService(repo, nil, zap.NewNop())
	return NewJobProfileHandler(svc, nil)
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestJobProfileHandlerGetReturnsDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newJobProfileHandler(&jobProfileRepoMock{})

	c, w := newGinContext(http.MethodGet, "/courses/5/jobprofile", nil)
	c.Params = gin.Params{{Key: "id", Value: "5"}}

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Data dto.JobProfileResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.Len(t, payload.Data.Rows, len(models.DefaultJobProfileRows()))
	require.Equal(t, "Organizational Skills", payload.Data.Rows[0].Skill)
}

func TestJobProfileHandlerGetRejectsBadCourseID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newJobProfileHandler(&jobProfileRepoMock{})

	c, w := newGinContext(http.MethodGet, "/courses/abc/jobprofile", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.Get(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	require.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
}

func TestJobProfileHandlerSaveRejectsInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newJobProfileHandler(&jobProfileRepoMock{})

	c, w := newGinContext(http.MethodPut, "/courses/5/jobprofile", []byte(`{"rows": "nope"}`))
	c.Params = gin.Params{{Key: "id", Value: "5"}}

	handler.Save(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJobProfileHandlerSaveRecomputesRows(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &jobProfileRepoMock{}
	handler := newJobProfileHandler(repo)

	payload, _ := json.Marshal(dto.JobProfileSaveRequest{Rows: []dto.JobProfileRowInput{
		{Skill: "Organizational Skills", Weight: "10%", System: "60%", Assignment: "-", Instructor: "40%"},
	}})
	c, w := newGinContext(http.MethodPut, "/courses/5/jobprofile", payload)
	c.Params = gin.Params{{Key: "id", Value: "5"}}

	handler.Save(c)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data dto.JobProfileResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Rows, 1)
	require.Equal(t, "50%", resp.Data.Rows[0].UserGrade)
	require.Equal(t, "5.0%", resp.Data.Rows[0].UserSkill)
	require.NotEmpty(t, repo.stored[5])
}
