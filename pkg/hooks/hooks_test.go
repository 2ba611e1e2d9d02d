package hooks

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"blitzscan/internal/models"
	"blitzscan/internal/notification"
	"blitzscan/pkg/parsers"
	"blitzscan/pkg/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockHook struct {
	mock.Mock
	name string
}

func (m *MockHook) Name() string { return m.name }

func (m *MockHook) Execute(ctx context.Context, scan *models.Scan) error {
	return m.Called(ctx, scan).Error(0)
}

type recordingSender struct {
	mu       sync.Mutex
	messages []notification.Message
	err      error
}

func (r *recordingSender) Send(msg notification.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return r.err
}

type recordingPublisher struct {
	scans []*models.Scan
}

func (r *recordingPublisher) PublishScan(_ context.Context, scan *models.Scan) error {
	r.scans = append(r.scans, scan)
	return nil
}

func TestRegistry_RunCollectsFailures(t *testing.T) {
	scan := &models.Scan{ID: "scan_1", Kind: models.KindWhois, Status: models.StatusCompleted}

	ok := &MockHook{name: "ok"}
	ok.On("Execute", mock.Anything, scan).Return(nil)
	broken := &MockHook{name: "broken"}
	broken.On("Execute", mock.Anything, scan).Return(fmt.Errorf("webhook down"))

	registry := NewRegistry(nil)
	registry.Register(ok)
	registry.Register(broken)
	assert.Equal(t, []string{"ok", "broken"}, registry.List())

	err := registry.Run(context.Background(), scan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hook broken: webhook down")
	ok.AssertExpectations(t)
	broken.AssertExpectations(t)
}

func TestRegistry_ReplaceByName(t *testing.T) {
	first := &MockHook{name: "events"}
	second := &MockHook{name: "events"}
	second.On("Execute", mock.Anything, mock.Anything).Return(nil)

	registry := NewRegistry(nil)
	registry.Register(first)
	registry.Register(second)

	assert.Equal(t, []string{"events"}, registry.List())
	require.NoError(t, registry.Run(context.Background(), &models.Scan{}))
	first.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	second.AssertNumberOfCalls(t, "Execute", 1)
}

func TestRegistry_DispatchAndWait(t *testing.T) {
	release := make(chan struct{})
	var ran []string

	hook := &MockHook{name: "slow"}
	hook.On("Execute", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-release
			ran = append(ran, args.Get(1).(*models.Scan).ID)
		}).
		Return(nil)

	registry := NewRegistry(nil)
	registry.Register(hook)

	scan := &models.Scan{ID: "s1", Kind: models.KindNmap, Status: models.StatusCompleted}
	registry.Dispatch(context.Background(), scan)
	scan.Owner = "changed after dispatch"

	close(release)
	registry.Wait()

	assert.Equal(t, []string{"s1"}, ran)
	hook.AssertNumberOfCalls(t, "Execute", 1)
}

func TestRegistry_DispatchWithoutHooks(t *testing.T) {
	registry := NewRegistry(nil)
	registry.Dispatch(context.Background(), &models.Scan{ID: "s1"})
	registry.Wait()
}

func TestRegistry_EmptyRun(t *testing.T) {
	assert.NoError(t, NewRegistry(nil).Run(context.Background(), &models.Scan{}))
}

func TestNotifierHook(t *testing.T) {
	tests := []struct {
		name      string
		scan      *models.Scan
		severity  string
		wantField string
		wantValue string
	}{
		{
			name:      "fuzzing",
			scan:      &models.Scan{ID: "s1", Kind: models.KindFuzzing, Status: models.StatusCompleted, Results: make([]models.FuzzResultRecord, 3)},
			severity:  "info",
			wantField: "Rutas",
			wantValue: "3",
		},
		{
			name:      "ports",
			scan:      &models.Scan{ID: "s2", Kind: models.KindNmap, Status: models.StatusCompleted, Ports: &models.PortScanResult{OpenPorts: make([]models.OpenPortRecord, 2)}},
			severity:  "info",
			wantField: "Puertos abiertos",
			wantValue: "2",
		},
		{
			name:      "whois",
			scan:      &models.Scan{ID: "s3", Kind: models.KindWhois, Status: models.StatusCompleted, Whois: &models.DomainLookupRecord{Registrar: "gandi"}},
			severity:  "info",
			wantField: "Registrador",
			wantValue: "gandi",
		},
		{
			name:      "failed",
			scan:      &models.Scan{ID: "s4", Kind: models.KindNmap, Status: models.StatusFailed, ErrorMessage: "backend down"},
			severity:  "high",
			wantField: "Error",
			wantValue: "backend down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &recordingSender{}
			require.NoError(t, NewNotifierHook(sender).Execute(context.Background(), tt.scan))

			require.Len(t, sender.messages, 1)
			msg := sender.messages[0]
			assert.Equal(t, tt.severity, msg.Severity)
			assert.Equal(t, tt.scan.ID, msg.Fields["ID"])
			assert.Equal(t, tt.wantValue, msg.Fields[tt.wantField])
		})
	}
}

func TestFindingsNotifierHook(t *testing.T) {
	scan := &models.Scan{
		ID:     "s1",
		URL:    "https://example.com",
		Kind:   models.KindFuzzing,
		Status: models.StatusCompleted,
		Results: []models.FuzzResultRecord{
			{PathFound: "/index.html", HTTPStatus: 200},
			{PathFound: "/.env", HTTPStatus: 200},
			{PathFound: "/admin", HTTPStatus: 403},
		},
	}

	sender := &recordingSender{}
	hook := NewFindingsNotifierHook(sender, WithInterval(0))
	require.NoError(t, hook.Execute(context.Background(), scan))

	require.Len(t, sender.messages, 2)
	severities := map[string]bool{}
	for _, msg := range sender.messages {
		severities[msg.Severity] = true
	}
	assert.True(t, severities["critical"])
	assert.True(t, severities["high"])

	t.Run("ignores other kinds", func(t *testing.T) {
		sender := &recordingSender{}
		hook := NewFindingsNotifierHook(sender, WithInterval(0))
		require.NoError(t, hook.Execute(context.Background(), &models.Scan{Kind: models.KindWhois, Status: models.StatusCompleted}))
		assert.Empty(t, sender.messages)
	})

	t.Run("reports send failures", func(t *testing.T) {
		sender := &recordingSender{err: fmt.Errorf("429")}
		hook := NewFindingsNotifierHook(sender, WithInterval(0))
		assert.ErrorContains(t, hook.Execute(context.Background(), scan), "2 of 2")
	})
}

func TestFindingsNotifierHook_CustomPatterns(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "blitzscan-patterns-")
	defer cleanup()
	patterns, err := parsers.LoadPatterns(testutil.CreateTestFile(t, dir, "patterns.txt", "^/internal\n"))
	require.NoError(t, err)

	scan := &models.Scan{
		ID:     "s2",
		URL:    "https://example.com",
		Kind:   models.KindFuzzing,
		Status: models.StatusCompleted,
		Results: []models.FuzzResultRecord{
			{PathFound: "/.env", HTTPStatus: 200},
			{PathFound: "/internal/status", HTTPStatus: 200},
		},
	}

	sender := &recordingSender{}
	hook := NewFindingsNotifierHook(sender, WithPatterns(patterns), WithInterval(0))
	require.NoError(t, hook.Execute(context.Background(), scan))

	require.Len(t, sender.messages, 1)
	assert.Equal(t, "Custom", sender.messages[0].Fields["Category"])
	assert.Contains(t, sender.messages[0].Description, "/internal/status")
}

func TestEventHook(t *testing.T) {
	publisher := &recordingPublisher{}
	hook := NewEventHook(publisher)
	scan := &models.Scan{ID: "s1"}

	assert.Equal(t, "events", hook.Name())
	require.NoError(t, hook.Execute(context.Background(), scan))
	assert.Equal(t, []*models.Scan{scan}, publisher.scans)
}
