package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"thermal-printer/internal/config"
	"thermal-printer/internal/events"
	"thermal-printer/internal/model"
	"thermal-printer/internal/printer"
	"thermal-printer/internal/printer/printertest"
)

func newTestService(t *testing.T, cfg config.JobsConfig) (*PrintService, *printertest.Device, *events.EventBus) {
	t.Helper()

	c, device, err := printertest.NewController(printer.DefaultConfig())
	require.NoError(t, err)

	bus := events.NewEventBus(zap.NewNop())
	go bus.Start()
	t.Cleanup(bus.Stop)

	return NewPrintService(c, bus, cfg, zap.NewNop()), device, bus
}

var defaultJobs = config.JobsConfig{HistorySize: 10, MaxLines: 20}

func TestSubmitPlainLine(t *testing.T) {
	svc, device, _ := newTestService(t, defaultJobs)

	record, err := svc.Submit(context.Background(), &model.Job{Lines: []model.Line{
		{Text: "HI", Justify: "center"},
	}})
	require.NoError(t, err)

	assert.Equal(t, model.JobStatusSuccess, record.Status)
	assert.True(t, record.IsCompleted())
	assert.NotNil(t, record.DurationMs)
	assert.Equal(t, []byte{27, 97, 1, 'H', 'I', 10}, device.Bytes())
}

func TestSubmitFormattedLineIsBalanced(t *testing.T) {
	svc, device, _ := newTestService(t, defaultJobs)

	_, err := svc.Submit(context.Background(), &model.Job{Lines: []model.Line{
		{Text: "X", Bold: true, DoubleWidth: true, Inverse: true, UpsideDown: true, Feed: 2},
	}})
	require.NoError(t, err)

	assert.Equal(t, []byte{
		29, 66, 1, // inverse on
		27, 123, 1, // upside down on
		27, 69, 1, // bold on
		27, 14, // double width on
		'X',
		27, 20, // double width off
		27, 69, 0, // bold off
		27, 123, 0, // upside down off
		27, 66, 0, // inverse off
		10, 10, 10,
	}, device.Bytes())
}

func TestSubmitWriteFailureStillTurnsModesOff(t *testing.T) {
	svc, device, bus := newTestService(t, defaultJobs)
	sub := bus.Subscribe()
	device.FailOnWrite = 3 // the text write

	record, err := svc.Submit(context.Background(), &model.Job{Lines: []model.Line{
		{Text: "X", Bold: true, Inverse: true},
		{Text: "never"},
	}})
	require.Error(t, err)
	assert.ErrorIs(t, err, printer.ErrTransportWriteFailed)

	assert.Equal(t, model.JobStatusFailed, record.Status)
	assert.Equal(t, "print_text", record.FailedCommand)
	require.NotNil(t, record.ErrorMessage)
	assert.Equal(t, []byte{29, 66, 1, 27, 69, 1, 27, 69, 0, 27, 66, 0}, device.Bytes())

	var types []string
	timeout := time.After(time.Second)
	for len(types) < 2 {
		select {
		case event := <-sub:
			types = append(types, event.Type)
		case <-timeout:
			t.Fatalf("missing events, got %v", types)
		}
	}
	assert.Equal(t, []string{events.TypeJobStarted, events.TypeJobFailed}, types)
}

func TestSubmitValidation(t *testing.T) {
	svc, device, _ := newTestService(t, config.JobsConfig{HistorySize: 10, MaxLines: 2})

	testCases := []struct {
		name string
		job  *model.Job
	}{
		{"Nil", nil},
		{"Empty", &model.Job{}},
		{"TooManyLines", &model.Job{Lines: []model.Line{{}, {}, {}}}},
		{"BadJustify", &model.Job{Lines: []model.Line{{Text: "a", Justify: "middle"}}}},
		{"NegativeFeed", &model.Job{Lines: []model.Line{{Text: "a", Feed: -1}}}},
		{"FeedTooLarge", &model.Job{Lines: []model.Line{{Text: "a", Feed: 256}}}},
		{"EscapeInText", &model.Job{Lines: []model.Line{{Text: "a\x1b@"}}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			record, err := svc.Submit(context.Background(), tc.job)
			assert.Nil(t, record)
			assert.ErrorIs(t, err, ErrInvalidJob)
		})
	}

	assert.Empty(t, device.Bytes())
	assert.Empty(t, svc.ListJobs(0))
}

func TestSubmitCancelledContext(t *testing.T) {
	svc, device, _ := newTestService(t, defaultJobs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	record, err := svc.Submit(ctx, &model.Job{Lines: []model.Line{{Text: "a"}}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, model.JobStatusFailed, record.Status)
	assert.Empty(t, device.Bytes())
}

func TestConcurrentJobsDoNotInterleave(t *testing.T) {
	svc, device, _ := newTestService(t, config.JobsConfig{HistorySize: 100, MaxLines: 20})

	job := &model.Job{Lines: []model.Line{
		{Text: "a", Bold: true},
		{Text: "b", DoubleWidth: true},
	}}
	unit := []byte{27, 69, 1, 'a', 27, 69, 0, 10, 27, 14, 'b', 27, 20, 10}

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(context.Background(), job)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stream := device.Bytes()
	require.Len(t, stream, workers*len(unit))
	for i := 0; i < workers; i++ {
		assert.Equal(t, unit, stream[i*len(unit):(i+1)*len(unit)])
	}
}

func TestHistory(t *testing.T) {
	svc, _, _ := newTestService(t, config.JobsConfig{HistorySize: 2, MaxLines: 5})
	job := &model.Job{Lines: []model.Line{{Text: "a"}}}

	first, err := svc.Submit(context.Background(), job)
	require.NoError(t, err)
	second, err := svc.Submit(context.Background(), job)
	require.NoError(t, err)
	third, err := svc.Submit(context.Background(), job)
	require.NoError(t, err)

	jobs := svc.ListJobs(0)
	require.Len(t, jobs, 2)
	assert.Equal(t, third.ID, jobs[0].ID)
	assert.Equal(t, second.ID, jobs[1].ID)
	assert.Len(t, svc.ListJobs(1), 1)

	_, err = svc.GetJob(first.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)

	found, err := svc.GetJob(second.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusSuccess, found.Status)

	_, err = svc.GetJob(uuid.New())
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestSetMode(t *testing.T) {
	svc, device, _ := newTestService(t, defaultJobs)
	ctx := context.Background()

	require.NoError(t, svc.SetMode(ctx, model.PrinterModeOffline))
	require.NoError(t, svc.SetMode(ctx, model.PrinterModeOffline))
	require.NoError(t, svc.SetMode(ctx, model.PrinterModeOnline))
	require.NoError(t, svc.SetMode(ctx, model.PrinterModeReset))

	assert.Equal(t, []byte{27, 61, 0, 27, 61, 0, 27, 61, 1, 27, 64}, device.Bytes())
	assert.ErrorIs(t, svc.SetMode(ctx, model.PrinterMode("sleep")), ErrInvalidJob)
}
