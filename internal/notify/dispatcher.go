package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/deferral-gin/internal/metrics"
	"github.com/mautops/deferral-gin/internal/model"
	"github.com/mautops/deferral-gin/internal/repository"
	"github.com/sirupsen/logrus"
)

// ErrQueueFull 队列已满,事件留在发件箱等待恢复
var ErrQueueFull = errors.New("notify queue full")

// Publisher 发布通知事件
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Options Dispatcher 配置
type Options struct {
	Workers    int
	QueueSize  int
	MaxRetries int
	Backoff    time.Duration
}

// Dispatcher 基于发件箱的事件分发器
type Dispatcher struct {
	repo       repository.EventRepository
	sinks      []Sink
	logger     *logrus.Logger
	queue      chan *model.EventModel
	workers    int
	maxRetries int
	backoff    time.Duration
	stop       chan struct{}
	wg         sync.WaitGroup
	once       sync.Once
}

// NewDispatcher 创建分发器,需调用 Start 启动 worker
func NewDispatcher(repo repository.EventRepository, sinks []Sink, opts Options, logger *logrus.Logger) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1000
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Dispatcher{
		repo:       repo,
		sinks:      sinks,
		logger:     logger,
		queue:      make(chan *model.EventModel, opts.QueueSize),
		workers:    opts.Workers,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		stop:       make(chan struct{}),
	}
}

// Start 启动 worker 并重新入队未投递的事件
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	d.recover()
}

// Stop 停止分发器并等待 worker 退出
func (d *Dispatcher) Stop() {
	d.once.Do(func() { close(d.stop) })
	d.wg.Wait()
}

// Publish 持久化事件后异步投递
func (d *Dispatcher) Publish(_ context.Context, evt Event) error {
	if evt.ID == "" {
		evt.ID = uuid.New().String()
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	now := time.Now()
	eventModel := &model.EventModel{
		ID:          evt.ID,
		AggregateID: evt.AggregateID,
		Type:        evt.Type,
		Data:        data,
		Status:      model.EventPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := eventModel.Validate(); err != nil {
		return err
	}
	if err := d.repo.Save(eventModel); err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}

	select {
	case d.queue <- eventModel:
		return nil
	default:
		d.logger.WithFields(logrus.Fields{
			"event_id":     evt.ID,
			"event_type":   evt.Type,
			"aggregate_id": evt.AggregateID,
		}).Warn("notify queue full, event left pending")
		return ErrQueueFull
	}
}

// recover 重新入队发件箱中待投递的事件
func (d *Dispatcher) recover() {
	pending, err := d.repo.FindPending(cap(d.queue))
	if err != nil {
		d.logger.WithError(err).Error("failed to load pending events")
		return
	}
	for _, e := range pending {
		select {
		case d.queue <- e:
		default:
			return
		}
	}
}

// worker 事件处理 worker
func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case e := <-d.queue:
			d.deliver(e)
		case <-d.stop:
			return
		}
	}
}

// deliver 带指数退避的投递
func (d *Dispatcher) deliver(e *model.EventModel) {
	var evt Event
	if err := json.Unmarshal(e.Data, &evt); err != nil {
		_ = d.repo.MarkFailed(e.ID, e.RetryCount, err.Error())
		return
	}

	log := d.logger.WithFields(logrus.Fields{
		"event_id":   e.ID,
		"event_type": e.Type,
	})

	backoff := d.backoff
	retries := e.RetryCount
	pending := d.sinks
	var lastErr error
	for i := 0; i < d.maxRetries; i++ {
		pending, lastErr = d.deliverTo(pending, evt)
		if lastErr == nil {
			if err := d.repo.MarkDelivered(e.ID); err != nil {
				log.WithError(err).Error("failed to mark event delivered")
			}
			return
		}

		retries++
		log.WithError(lastErr).WithField("retry", retries).Warn("event delivery failed")

		if i < d.maxRetries-1 {
			select {
			case <-time.After(backoff):
			case <-d.stop:
				_ = d.repo.MarkFailed(e.ID, retries, lastErr.Error())
				return
			}
			backoff *= 2 // 指数退避
		}
	}

	if err := d.repo.MarkFailed(e.ID, retries, lastErr.Error()); err != nil {
		log.WithError(err).Error("failed to mark event failed")
	}
}

// deliverTo 投递到给定目标,返回仍需重试的目标
func (d *Dispatcher) deliverTo(sinks []Sink, evt Event) ([]Sink, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var failed []Sink
	var errs []error
	for _, sink := range sinks {
		err := sink.Deliver(ctx, evt)
		metrics.RecordDelivery(sink.Name(), err == nil)
		if err != nil {
			failed = append(failed, sink)
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	return failed, errors.Join(errs...)
}

// NopPublisher 丢弃所有事件
type NopPublisher struct{}

// Publish 不做任何事
func (NopPublisher) Publish(context.Context, Event) error { return nil }
