package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"elevator-access-backend/internal/model"
	"elevator-access-backend/internal/store"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

// A helper function to create a mock-backed store.
func newTestStore(t *testing.T) (store.Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return store.NewGormStore(gormDB), mock
}

func subscriptionRows(endpoint string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "user_id", "unit_number", "created_at"}).
		AddRow(endpoint, "test_p256dh", "test_auth", 1, "201", time.Now())
}

func TestWorkerPool_Dispatch(t *testing.T) {
	s, _ := newTestStore(t)
	wp := NewWorkerPool(1, 1, s, &webpush.Options{}, zap.NewNop())

	wp.Dispatch(model.CommandEntry{ID: 1, UnitNumber: "201"})
	// The queue holds one alert; the second is dropped instead of blocking.
	wp.Dispatch(model.CommandEntry{ID: 2, UnitNumber: "201"})

	select {
	case job := <-wp.Jobs():
		assert.Equal(t, int64(1), job.ID)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
	assert.Len(t, wp.Jobs(), 0)
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	s, mock := newTestStore(t)
	wp := NewWorkerPool(1, 4, s, &webpush.Options{}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	entry := model.CommandEntry{ID: 9, UnitNumber: "201", CardType: model.CardTypeSecondary, Action: model.ActionActivate, Success: true}

	t.Run("sends notification for one subscription", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(1)

		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				defer wg.Done()
				assert.Equal(t, "https://example.com/push", sub.Endpoint)
				var alert Alert
				assert.NoError(t, json.Unmarshal(payload, &alert))
				assert.Equal(t, "Card B used on unit 201 (ACTIVATE)", alert.Body)
				assert.Equal(t, int64(9), alert.EntryID)
				return &http.Response{
					StatusCode: http.StatusCreated,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions" WHERE unit_number = \$1`).
			WithArgs("201").
			WillReturnRows(subscriptionRows("https://example.com/push"))

		wp.Dispatch(entry)
		wg.Wait()
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusGone,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions" WHERE unit_number = \$1`).
			WithArgs("201").
			WillReturnRows(subscriptionRows("https://example.com/expired"))

		// Expect the delete operation
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE "push_subscriptions"."endpoint" = \$1`).
			WithArgs("https://example.com/expired").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		wp.Dispatch(entry)

		assert.Eventually(t, func() bool {
			return mock.ExpectationsWereMet() == nil
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("skips units without subscriptions", func(t *testing.T) {
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				t.Error("no notification expected")
				return nil, nil
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions" WHERE unit_number = \$1`).
			WithArgs("305").
			WillReturnRows(sqlmock.NewRows([]string{"endpoint"}))

		wp.Dispatch(model.CommandEntry{ID: 10, UnitNumber: "305"})

		assert.Eventually(t, func() bool {
			return mock.ExpectationsWereMet() == nil
		}, time.Second, 10*time.Millisecond)
	})

	cancel()
	wp.Wait()
}
