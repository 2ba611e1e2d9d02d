package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"blitzscan/internal/models"
	"blitzscan/internal/report"
	"blitzscan/pkg/errors"
	"blitzscan/pkg/parsers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockScanService struct {
	mock.Mock
}

func (m *MockScanService) StartScan(ctx context.Context, owner, rawURL string, kind models.ScanKind) (*models.Scan, error) {
	args := m.Called(owner, rawURL, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Scan), args.Error(1)
}

func (m *MockScanService) SaveScan(ctx context.Context, owner string, scan *models.Scan) error {
	return m.Called(owner, scan).Error(0)
}

func (m *MockScanService) ListScans(ctx context.Context, owner string) ([]models.Scan, error) {
	args := m.Called(owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Scan), args.Error(1)
}

func (m *MockScanService) GetScan(ctx context.Context, owner, id string) (*models.Scan, error) {
	args := m.Called(owner, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Scan), args.Error(1)
}

func (m *MockScanService) DeleteScan(ctx context.Context, owner, id string) error {
	return m.Called(owner, id).Error(0)
}

func (m *MockScanService) Report(ctx context.Context, owner, id string, w io.Writer) (string, error) {
	args := m.Called(owner, id, w)
	return args.String(0), args.Error(1)
}

func completedScan() *models.Scan {
	return &models.Scan{
		ID:        "scan_1735787045000_abcdef123",
		Owner:     "ana@example.com",
		URL:       "https://example.com",
		Kind:      models.KindNmap,
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Results:   []models.FuzzResultRecord{},
		Ports:     &models.PortScanResult{OpenPorts: []models.OpenPortRecord{{Port: "22/tcp", Service: "ssh"}}},
		Status:    models.StatusCompleted,
	}
}

func TestStartScan(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		requestBody    string
		setupMock      func(*MockScanService)
		expectedStatus int
		expectedBody   string
		validateMock   func(*testing.T, *MockScanService)
	}{
		{
			name:        "Valid Request - Success",
			requestBody: `{"url":"https://example.com","scan_type":"nmap","owner":"ana@example.com"}`,
			setupMock: func(m *MockScanService) {
				m.On("StartScan", "ana@example.com", "https://example.com", models.KindNmap).Return(completedScan(), nil)
			},
			expectedStatus: 200,
			validateMock: func(t *testing.T, m *MockScanService) {
				m.AssertNumberOfCalls(t, "StartScan", 1)
				m.AssertNotCalled(t, "SaveScan", mock.Anything, mock.Anything)
			},
		},
		{
			name:        "Valid Request - Saved To History",
			requestBody: `{"url":"https://example.com","scan_type":"nmap","owner":"ana@example.com","save":true}`,
			setupMock: func(m *MockScanService) {
				scan := completedScan()
				m.On("StartScan", "ana@example.com", "https://example.com", models.KindNmap).Return(scan, nil)
				m.On("SaveScan", "ana@example.com", scan).Return(nil)
			},
			expectedStatus: 200,
		},
		{
			name:        "Failed Scan Is Not Saved",
			requestBody: `{"url":"https://example.com","scan_type":"nmap","owner":"ana@example.com","save":true}`,
			setupMock: func(m *MockScanService) {
				scan := completedScan()
				scan.Status = models.StatusFailed
				m.On("StartScan", "ana@example.com", "https://example.com", models.KindNmap).Return(scan, nil)
			},
			expectedStatus: 200,
			validateMock: func(t *testing.T, m *MockScanService) {
				m.AssertNotCalled(t, "SaveScan", mock.Anything, mock.Anything)
			},
		},
		{
			name:           "Invalid JSON - Malformed",
			requestBody:    `{"scan_type":"nmap","url":}`,
			setupMock:      func(m *MockScanService) {},
			expectedStatus: 400,
			expectedBody:   `{"error":"Invalid request payload"}`,
			validateMock: func(t *testing.T, m *MockScanService) {
				m.AssertNumberOfCalls(t, "StartScan", 0)
			},
		},
		{
			name:           "Missing Required Field - url",
			requestBody:    `{"scan_type":"nmap"}`,
			setupMock:      func(m *MockScanService) {},
			expectedStatus: 400,
			expectedBody:   `{"error":"Invalid request payload"}`,
		},
		{
			name:        "Invalid Target",
			requestBody: `{"url":"example","scan_type":"nmap"}`,
			setupMock: func(m *MockScanService) {
				m.On("StartScan", "", "example", models.KindNmap).
					Return(nil, fmt.Errorf("%w: missing scheme", errors.ErrInvalidTarget))
			},
			expectedStatus: 400,
			expectedBody:   `{"error":"Por favor ingresa una URL válida"}`,
		},
		{
			name:        "Scan Already Running",
			requestBody: `{"url":"https://example.com","scan_type":"whois","owner":"ana@example.com"}`,
			setupMock: func(m *MockScanService) {
				m.On("StartScan", "ana@example.com", "https://example.com", models.KindWhois).
					Return(nil, errors.ErrScanInProgress)
			},
			expectedStatus: 409,
			expectedBody:   `{"error":"A scan is already in progress"}`,
		},
		{
			name:        "Service Error - Internal Error",
			requestBody: `{"url":"https://example.com","scan_type":"fuzzing"}`,
			setupMock: func(m *MockScanService) {
				m.On("StartScan", "", "https://example.com", models.KindFuzzing).
					Return(nil, fmt.Errorf("queue closed"))
			},
			expectedStatus: 500,
			expectedBody:   `{"error":"Failed to start scan"}`,
		},
		{
			name:           "Empty Request Body",
			requestBody:    `{}`,
			setupMock:      func(m *MockScanService) {},
			expectedStatus: 400,
			expectedBody:   `{"error":"Invalid request payload"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockScanService)
			tt.setupMock(mockService)

			handler := NewScanHandler(mockService, nil)
			router := gin.New()
			router.POST("/api/scans", handler.StartScan)

			req, err := http.NewRequest("POST", "/api/scans", strings.NewReader(tt.requestBody))
			require.NoError(t, err)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code, "Response: %s", w.Body.String())
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
			if tt.validateMock != nil {
				tt.validateMock(t, mockService)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestStartScan_ResponseShape(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockScanService)
	mockService.On("StartScan", "", "https://example.com", models.KindNmap).Return(completedScan(), nil)

	router := gin.New()
	router.POST("/api/scans", NewScanHandler(mockService, nil).StartScan)

	req, _ := http.NewRequest("POST", "/api/scans", strings.NewReader(`{"url":"https://example.com","scan_type":"nmap"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "nmap", body["scan_type"])
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, "2025-01-02T03:04:05Z", body["timestamp"])
	ports := body["ports"].(map[string]interface{})
	assert.Len(t, ports["openPorts"], 1)
}

func TestListScans(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		query          string
		setupMock      func(*MockScanService)
		expectedStatus int
		expectedLen    int
	}{
		{
			name:  "Owner With History",
			query: "?owner=ana@example.com",
			setupMock: func(m *MockScanService) {
				m.On("ListScans", "ana@example.com").Return([]models.Scan{*completedScan()}, nil)
			},
			expectedStatus: 200,
			expectedLen:    1,
		},
		{
			name:  "Owner Without History",
			query: "?owner=new@example.com",
			setupMock: func(m *MockScanService) {
				m.On("ListScans", "new@example.com").Return([]models.Scan{}, nil)
			},
			expectedStatus: 200,
			expectedLen:    0,
		},
		{
			name:  "Missing Owner",
			query: "",
			setupMock: func(m *MockScanService) {
				m.On("ListScans", "").Return(nil, errors.ErrNotAuthenticated)
			},
			expectedStatus: 401,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockScanService)
			tt.setupMock(mockService)

			router := gin.New()
			router.GET("/api/scans", NewScanHandler(mockService, nil).ListScans)

			req, _ := http.NewRequest("GET", "/api/scans"+tt.query, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == 200 {
				var scans []models.Scan
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &scans))
				assert.Len(t, scans, tt.expectedLen)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestGetScan(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		scanID         string
		setupMock      func(*MockScanService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "Valid ID - Scan Found",
			scanID: "scan_1735787045000_abcdef123",
			setupMock: func(m *MockScanService) {
				m.On("GetScan", "ana@example.com", "scan_1735787045000_abcdef123").Return(completedScan(), nil)
			},
			expectedStatus: 200,
		},
		{
			name:   "Valid ID - Scan Not Found",
			scanID: "non-existent-id",
			setupMock: func(m *MockScanService) {
				m.On("GetScan", "ana@example.com", "non-existent-id").Return(nil, errors.ErrScanNotFound)
			},
			expectedStatus: 404,
			expectedBody:   `{"error":"Scan not found"}`,
		},
		{
			name:   "Service Returns Nil Scan",
			scanID: "some-id",
			setupMock: func(m *MockScanService) {
				m.On("GetScan", "ana@example.com", "some-id").Return((*models.Scan)(nil), nil)
			},
			expectedStatus: 404,
			expectedBody:   `{"error":"Scan not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockScanService)
			tt.setupMock(mockService)

			router := gin.New()
			router.GET("/api/scans/:id", NewScanHandler(mockService, nil).GetScan)

			req, _ := http.NewRequest("GET", fmt.Sprintf("/api/scans/%s?owner=ana@example.com", tt.scanID), nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestDownloadReport(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockScanService)
	scan := completedScan()
	mockService.On("GetScan", "ana@example.com", scan.ID).Return(scan, nil)

	router := gin.New()
	router.GET("/api/scans/:id/report", NewScanHandler(mockService, nil).DownloadReport)

	req, _ := http.NewRequest("GET", "/api/scans/"+scan.ID+"/report?owner=ana@example.com", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, `attachment; filename="blitz-scan-report-`+scan.ID+`.txt"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "BLITZ SCAN - REPORTE DE SEGURIDAD"))
	assert.Contains(t, w.Body.String(), "22/tcp ssh")
}

func TestDownloadReport_CustomPatterns(t *testing.T) {
	gin.SetMode(gin.TestMode)

	scan := completedScan()
	scan.Kind = models.KindFuzzing
	scan.Ports = nil
	scan.Results = []models.FuzzResultRecord{{Sequence: 1, PathFound: "/internal/debug", HTTPStatus: 200}}

	mockService := new(MockScanService)
	mockService.On("GetScan", "ana@example.com", scan.ID).Return(scan, nil)

	patterns := []parsers.SensitivePattern{{
		Pattern:     "^/internal",
		Regex:       regexp.MustCompile("^/internal"),
		Severity:    "critical",
		Description: "Internal Endpoint",
		Category:    "Custom",
	}}

	router := gin.New()
	router.GET("/api/scans/:id/report", NewScanHandler(mockService, nil, report.WithPatterns(patterns)).DownloadReport)

	req, _ := http.NewRequest("GET", "/api/scans/"+scan.ID+"/report?owner=ana@example.com", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "🔴 /internal/debug [200] Internal Endpoint (Custom)")
}

func TestDeleteScan(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		scanID         string
		setupMock      func(*MockScanService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "Successful Deletion",
			scanID: "scan-123",
			setupMock: func(m *MockScanService) {
				m.On("DeleteScan", "ana@example.com", "scan-123").Return(nil)
			},
			expectedStatus: 204,
			expectedBody:   "",
		},
		{
			name:   "Scan Not Found",
			scanID: "missing-id",
			setupMock: func(m *MockScanService) {
				m.On("DeleteScan", "ana@example.com", "missing-id").Return(fmt.Errorf("delete: %w", errors.ErrScanNotFound))
			},
			expectedStatus: 404,
			expectedBody:   `{"error":"Scan not found"}`,
		},
		{
			name:   "Service Error",
			scanID: "scan-987",
			setupMock: func(m *MockScanService) {
				m.On("DeleteScan", "ana@example.com", "scan-987").Return(fmt.Errorf("redis: connection refused"))
			},
			expectedStatus: 500,
			expectedBody:   `{"error":"Failed to delete scan"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockScanService)
			tt.setupMock(mockService)

			router := gin.New()
			router.DELETE("/api/scans/:id", NewScanHandler(mockService, nil).DeleteScan)

			req, _ := http.NewRequest("DELETE", fmt.Sprintf("/api/scans/%s?owner=ana@example.com", tt.scanID), nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			} else {
				assert.Equal(t, "", w.Body.String())
			}
			mockService.AssertExpectations(t)
		})
	}
}

// Helper function to create a valid scan request body
func createScanRequestBody(scanType, url string) string {
	body, _ := json.Marshal(ScanRequest{ScanType: scanType, URL: url})
	return string(body)
}

func BenchmarkStartScan(b *testing.B) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockScanService)
	mockService.On("StartScan", "", "https://example.com", models.KindFuzzing).Return(completedScan(), nil)

	router := gin.New()
	router.POST("/api/scans", NewScanHandler(mockService, nil).StartScan)

	requestBody := createScanRequestBody("fuzzing", "https://example.com")

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		req, _ := http.NewRequest("POST", "/api/scans", strings.NewReader(requestBody))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}
}
