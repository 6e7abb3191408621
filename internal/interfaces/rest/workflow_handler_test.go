package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/lexflow/backend/internal/domain/models"
	"github.com/lexflow/backend/internal/interfaces/middleware"
	"github.com/lexflow/backend/internal/interfaces/rest"
	"github.com/lexflow/backend/pkg/auth"
	appErrors "github.com/lexflow/backend/pkg/errors"
)

// MockWorkflowEngine is a mock implementation of the WorkflowEngine
type MockWorkflowEngine struct {
	mock.Mock
}

func (m *MockWorkflowEngine) CreateWorkflow(ctx context.Context, documentID, templateName string) (*models.Workflow, error) {
	args := m.Called(ctx, documentID, templateName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workflow), args.Error(1)
}

func (m *MockWorkflowEngine) UpdateStepStatus(ctx context.Context, workflowID, stepID string, newStatus models.StepStatus, comment, author string) (*models.Workflow, error) {
	args := m.Called(ctx, workflowID, stepID, newStatus, comment, author)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workflow), args.Error(1)
}

func (m *MockWorkflowEngine) MoveToNextStep(ctx context.Context, workflowID string) (*models.Workflow, error) {
	args := m.Called(ctx, workflowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workflow), args.Error(1)
}

func (m *MockWorkflowEngine) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workflow), args.Error(1)
}

func (m *MockWorkflowEngine) GetWorkflowForDocument(ctx context.Context, documentID string) (*models.Workflow, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workflow), args.Error(1)
}

func TestWorkflowHandler_Create(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockWorkflowEngine)
	handler := rest.NewWorkflowHandler(mockService)

	t.Run("Success", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		reqBody := rest.CreateWorkflowRequest{DocumentID: "doc-1", Template: "standard"}
		jsonBytes, _ := json.Marshal(reqBody)
		c.Request = httptest.NewRequest("POST", "/workflows", bytes.NewBuffer(jsonBytes))

		expected := &models.Workflow{ID: "wf-1", DocumentID: "doc-1"}
		mockService.On("CreateWorkflow", mock.Anything, "doc-1", "standard").Return(expected, nil).Once()

		handler.Create(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Template Defaults To Standard", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		reqBody := rest.CreateWorkflowRequest{DocumentID: "doc-2"}
		jsonBytes, _ := json.Marshal(reqBody)
		c.Request = httptest.NewRequest("POST", "/workflows", bytes.NewBuffer(jsonBytes))

		expected := &models.Workflow{ID: "wf-2", DocumentID: "doc-2"}
		mockService.On("CreateWorkflow", mock.Anything, "doc-2", "standard").Return(expected, nil).Once()

		handler.Create(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Missing Document ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		c.Request = httptest.NewRequest("POST", "/workflows", bytes.NewBufferString(`{}`))

		handler.Create(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Duplicate Workflow", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		reqBody := rest.CreateWorkflowRequest{DocumentID: "doc-1"}
		jsonBytes, _ := json.Marshal(reqBody)
		c.Request = httptest.NewRequest("POST", "/workflows", bytes.NewBuffer(jsonBytes))

		conflict := appErrors.NewConflictError("Workflow", "document_id", "doc-1")
		mockService.On("CreateWorkflow", mock.Anything, "doc-1", "standard").Return(nil, conflict).Once()

		handler.Create(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		mockService.AssertExpectations(t)
	})
}

func TestWorkflowHandler_UpdateStepStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockWorkflowEngine)
	handler := rest.NewWorkflowHandler(mockService)

	t.Run("Success With Actor Comment", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		c.Set(middleware.ContextKeyActor, auth.ActorSession{ID: "u1", Name: "Alice", Email: "alice@lexflow.local", Role: "reviewer"})
		c.Params = gin.Params{{Key: "id", Value: "wf-1"}, {Key: "stepId", Value: "wf-1-1"}}

		reqBody := rest.UpdateStepStatusRequest{Status: models.StepStatusCompleted, Comment: "looks good"}
		jsonBytes, _ := json.Marshal(reqBody)
		c.Request = httptest.NewRequest("PATCH", "/workflows/wf-1/steps/wf-1-1", bytes.NewBuffer(jsonBytes))

		expected := &models.Workflow{ID: "wf-1"}
		mockService.On("UpdateStepStatus", mock.Anything, "wf-1", "wf-1-1", models.StepStatusCompleted, "looks good", "Alice").
			Return(expected, nil).Once()

		handler.UpdateStepStatus(c)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Unknown Step", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		c.Params = gin.Params{{Key: "id", Value: "wf-1"}, {Key: "stepId", Value: "missing"}}

		reqBody := rest.UpdateStepStatusRequest{Status: models.StepStatusCompleted}
		jsonBytes, _ := json.Marshal(reqBody)
		c.Request = httptest.NewRequest("PATCH", "/workflows/wf-1/steps/missing", bytes.NewBuffer(jsonBytes))

		notFound := appErrors.NewNotFoundError("Workflow Step", "missing")
		mockService.On("UpdateStepStatus", mock.Anything, "wf-1", "missing", models.StepStatusCompleted, "", "").
			Return(nil, notFound).Once()

		handler.UpdateStepStatus(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockService.AssertExpectations(t)
	})
}

func TestWorkflowHandler_Advance(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockWorkflowEngine)
	handler := rest.NewWorkflowHandler(mockService)

	t.Run("Success", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		c.Params = gin.Params{{Key: "id", Value: "wf-1"}}
		c.Request = httptest.NewRequest("POST", "/workflows/wf-1/advance", nil)

		expected := &models.Workflow{ID: "wf-1", CurrentStepIndex: 1}
		mockService.On("MoveToNextStep", mock.Anything, "wf-1").Return(expected, nil).Once()

		handler.Advance(c)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Current Step Not Completed", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		c.Params = gin.Params{{Key: "id", Value: "wf-1"}}
		c.Request = httptest.NewRequest("POST", "/workflows/wf-1/advance", nil)

		invalid := appErrors.NewInvalidStateError("Workflow", "current step \"Initial Review\" is Pending, not Completed")
		mockService.On("MoveToNextStep", mock.Anything, "wf-1").Return(nil, invalid).Once()

		handler.Advance(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		mockService.AssertExpectations(t)
	})
}

func TestWorkflowHandler_Get(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockWorkflowEngine)
	handler := rest.NewWorkflowHandler(mockService)

	t.Run("Not Found", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		c.Params = gin.Params{{Key: "id", Value: "missing"}}
		c.Request = httptest.NewRequest("GET", "/workflows/missing", nil)

		mockService.On("GetWorkflow", mock.Anything, "missing").
			Return(nil, appErrors.NewNotFoundError("Workflow", "missing")).Once()

		handler.Get(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("For Document", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		c.Params = gin.Params{{Key: "id", Value: "doc-1"}}
		c.Request = httptest.NewRequest("GET", "/documents/doc-1/workflow", nil)

		expected := &models.Workflow{ID: "wf-1", DocumentID: "doc-1"}
		mockService.On("GetWorkflowForDocument", mock.Anything, "doc-1").Return(expected, nil).Once()

		handler.GetForDocument(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var body map[string]models.Workflow
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "wf-1", body["data"].ID)
		mockService.AssertExpectations(t)
	})
}
