package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/mautops/deferral-gin/internal/database"
	"github.com/mautops/deferral-gin/internal/model"
	"github.com/mautops/deferral-gin/internal/notify"
	"github.com/mautops/deferral-gin/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func eventStatus(t *testing.T, repo repository.EventRepository, aggregateID string) *model.EventModel {
	events, err := repo.FindByAggregateID(aggregateID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	return events[0]
}

// TestDispatcher_WebhookRetry 测试 Webhook 失败后重试成功
func TestDispatcher_WebhookRetry(t *testing.T) {
	var calls int32
	var received notify.Event
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		mu.Lock()
		_ = json.NewDecoder(r.Body).Decode(&received)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	repo := repository.NewEventRepository(setupTestDB(t))
	d := notify.NewDispatcher(repo, []notify.Sink{notify.NewWebhookSink([]string{srv.URL}, nil)},
		notify.Options{Workers: 1, MaxRetries: 3, Backoff: time.Millisecond}, nil)
	d.Start()
	defer d.Stop()

	err := d.Publish(context.Background(), notify.Event{
		Type:        notify.EventChecklistSubmit,
		AggregateID: "cl-1",
		Payload:     map[string]interface{}{"status": "approved"},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return eventStatus(t, repo, "cl-1").Status == model.EventSuccess
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	mu.Lock()
	assert.Equal(t, notify.EventChecklistSubmit, received.Type)
	assert.Equal(t, "approved", received.Payload["status"])
	mu.Unlock()
}

// TestDispatcher_MarkFailed 测试重试耗尽后标记失败
func TestDispatcher_MarkFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	repo := repository.NewEventRepository(setupTestDB(t))
	d := notify.NewDispatcher(repo, []notify.Sink{notify.NewWebhookSink([]string{srv.URL}, nil)},
		notify.Options{Workers: 2, MaxRetries: 3, Backoff: time.Millisecond}, nil)
	d.Start()
	defer d.Stop()

	require.NoError(t, d.Publish(context.Background(), notify.Event{Type: notify.EventExtensionCreated, AggregateID: "ext-1"}))

	require.Eventually(t, func() bool {
		return eventStatus(t, repo, "ext-1").Status == model.EventFailed
	}, 2*time.Second, 10*time.Millisecond)

	e := eventStatus(t, repo, "ext-1")
	assert.Equal(t, 3, e.RetryCount)
	assert.Contains(t, e.LastError, "500")
}

// TestDispatcher_RecoverPending 测试启动时恢复发件箱
func TestDispatcher_RecoverPending(t *testing.T) {
	repo := repository.NewEventRepository(setupTestDB(t))
	data, _ := json.Marshal(notify.Event{ID: "evt-1", Type: notify.EventSLABreach, AggregateID: "cl-9"})
	now := time.Now()
	require.NoError(t, repo.Save(&model.EventModel{
		ID: "evt-1", AggregateID: "cl-9", Type: notify.EventSLABreach, Data: data,
		Status: model.EventPending, CreatedAt: now, UpdatedAt: now,
	}))

	b := &recordingBroadcaster{}
	d := notify.NewDispatcher(repo, []notify.Sink{notify.NewBroadcastSink(b)}, notify.Options{Backoff: time.Millisecond}, nil)
	d.Start()
	defer d.Stop()

	require.Eventually(t, func() bool {
		return eventStatus(t, repo, "cl-9").Status == model.EventSuccess
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"cl-9"}, b.Topics())
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	topics []string
}

func (b *recordingBroadcaster) Publish(topic string, _ []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics = append(b.topics, topic)
}

func (b *recordingBroadcaster) Topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.topics...)
}

type fakeSNS struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = in
	return &sns.PublishOutput{}, f.err
}

// TestSNSSink_Deliver 测试 SNS 发布参数
func TestSNSSink_Deliver(t *testing.T) {
	client := &fakeSNS{}
	sink := notify.NewSNSSinkWithClient(client, "arn:aws:sns:us-east-1:123456789012:deferrals")

	err := sink.Deliver(context.Background(), notify.Event{Type: notify.EventExtensionDecided, AggregateID: "ext-1"})
	require.NoError(t, err)
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:deferrals", *client.input.TopicArn)
	assert.Equal(t, notify.EventExtensionDecided, *client.input.MessageAttributes["event_type"].StringValue)

	client.err = errors.New("throttled")
	assert.Error(t, sink.Deliver(context.Background(), notify.Event{Type: notify.EventSLABreach}))
}
