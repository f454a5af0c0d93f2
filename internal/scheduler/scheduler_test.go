package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"esignapi/internal/logging"
	serviceMocks "esignapi/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var runAt = time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)

func newScheduler(buf *bytes.Buffer) (*Scheduler, *serviceMocks.MockShareService, *serviceMocks.MockDocumentService) {
	share := new(serviceMocks.MockShareService)
	docs := new(serviceMocks.MockDocumentService)
	return &Scheduler{
		Share:    share,
		Docs:     docs,
		Interval: time.Hour,
		TempTTL:  24 * time.Hour,
		Log:      logging.New(buf, time.UTC),
		Now:      func() time.Time { return runAt },
	}, share, docs
}

func TestScheduler_RunOnce(t *testing.T) {
	var buf bytes.Buffer
	s, share, docs := newScheduler(&buf)

	share.On("ExpireDue", mock.Anything, runAt).Return(int64(2), nil).Once()
	share.On("RemindDue", mock.Anything, runAt).Return(1, nil).Once()
	docs.On("PurgeTemp", mock.Anything, runAt.Add(-24*time.Hour)).Return(3, nil).Once()

	s.RunOnce(context.Background())

	share.AssertExpectations(t)
	docs.AssertExpectations(t)
	out := buf.String()
	assert.Contains(t, out, `"msg":"scheduler_expired"`)
	assert.Contains(t, out, `"members":2`)
	assert.Contains(t, out, `"msg":"scheduler_reminded"`)
	assert.Contains(t, out, `"documents":3`)
}

func TestScheduler_RunOnceKeepsGoingOnErrors(t *testing.T) {
	var buf bytes.Buffer
	s, share, docs := newScheduler(&buf)

	share.On("ExpireDue", mock.Anything, runAt).Return(int64(0), errors.New("db down")).Once()
	share.On("RemindDue", mock.Anything, runAt).Return(0, errors.New("smtp down")).Once()
	docs.On("PurgeTemp", mock.Anything, mock.Anything).Return(0, nil).Once()

	s.RunOnce(context.Background())

	share.AssertExpectations(t)
	docs.AssertExpectations(t)
	out := buf.String()
	assert.Contains(t, out, "scheduler_expire_failed")
	assert.Contains(t, out, "smtp down")
	assert.NotContains(t, out, "scheduler_purged")
}

func TestScheduler_NoPurgeWithoutTTL(t *testing.T) {
	var buf bytes.Buffer
	s, share, docs := newScheduler(&buf)
	s.TempTTL = 0

	share.On("ExpireDue", mock.Anything, runAt).Return(int64(0), nil).Once()
	share.On("RemindDue", mock.Anything, runAt).Return(0, nil).Once()

	s.RunOnce(context.Background())

	docs.AssertNotCalled(t, "PurgeTemp", mock.Anything, mock.Anything)
	assert.Empty(t, buf.String())
}

func TestScheduler_StartStop(t *testing.T) {
	var buf bytes.Buffer
	s, share, docs := newScheduler(&buf)
	s.Log = slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	ran := make(chan struct{}, 1)
	share.On("ExpireDue", mock.Anything, runAt).Return(int64(0), nil)
	share.On("RemindDue", mock.Anything, runAt).Return(0, nil)
	docs.On("PurgeTemp", mock.Anything, mock.Anything).Return(0, nil).Run(func(mock.Arguments) {
		select {
		case ran <- struct{}{}:
		default:
		}
	})

	s.Start(context.Background())
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("first run did not happen")
	}
	s.Stop()

	share.AssertCalled(t, "ExpireDue", mock.Anything, runAt)
}

func TestScheduler_NonPositiveInterval(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Minute} {
		t.Run(interval.String(), func(t *testing.T) {
			var buf bytes.Buffer
			s, share, docs := newScheduler(&buf)
			s.Interval = interval
			assert.Equal(t, DefaultInterval, s.interval())

			ran := make(chan struct{}, 1)
			share.On("ExpireDue", mock.Anything, runAt).Return(int64(0), nil)
			share.On("RemindDue", mock.Anything, runAt).Return(0, nil)
			docs.On("PurgeTemp", mock.Anything, mock.Anything).Return(0, nil).Run(func(mock.Arguments) {
				select {
				case ran <- struct{}{}:
				default:
				}
			})

			// The ticker is created after the first run; Stop returning means
			// the loop reached it without panicking.
			s.Start(context.Background())
			select {
			case <-ran:
			case <-time.After(time.Second):
				t.Fatal("first run did not happen")
			}
			s.Stop()
		})
	}
}
