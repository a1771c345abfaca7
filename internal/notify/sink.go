package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// Sink 事件投递目标
type Sink interface {
	Name() string
	Deliver(ctx context.Context, evt Event) error
}

// WebhookSink 推送到 HTTP Webhook
type WebhookSink struct {
	urls       []string
	headers    map[string]string
	httpClient *http.Client
}

// NewWebhookSink 创建 Webhook 目标
func NewWebhookSink(urls []string, headers map[string]string) *WebhookSink {
	return &WebhookSink{
		urls:       urls,
		headers:    headers,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Name 目标名称
func (s *WebhookSink) Name() string { return "webhook" }

// Deliver 推送到所有 Webhook,任一失败即返回错误
func (s *WebhookSink) Deliver(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	for _, url := range s.urls {
		if err := s.send(ctx, url, body); err != nil {
			return err
		}
	}
	return nil
}

func (s *WebhookSink) send(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range s.headers {
		req.Header.Set(key, value)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s returned status code: %d", url, resp.StatusCode)
	}
	return nil
}

// SNSPublisher sns.Client 的发布能力
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSink 发布到 AWS SNS 主题
type SNSSink struct {
	client   SNSPublisher
	topicARN string
}

// NewSNSSink 使用默认凭证链创建 SNS 目标
func NewSNSSink(ctx context.Context, region, topicARN string) (*SNSSink, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return NewSNSSinkWithClient(sns.NewFromConfig(cfg), topicARN), nil
}

// NewSNSSinkWithClient 使用给定客户端创建 SNS 目标
func NewSNSSinkWithClient(client SNSPublisher, topicARN string) *SNSSink {
	return &SNSSink{client: client, topicARN: topicARN}
}

// Name 目标名称
func (s *SNSSink) Name() string { return "sns" }

// Deliver 发布事件,事件类型写入消息属性用于订阅过滤
func (s *SNSSink) Deliver(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(string(body)),
		Subject:  aws.String(evt.Type),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"event_type": {
				DataType:    aws.String("String"),
				StringValue: aws.String(evt.Type),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish %s: %w", evt.Type, err)
	}
	return nil
}

// Broadcaster 按主题推送实时消息
type Broadcaster interface {
	Publish(topic string, payload []byte)
}

// BroadcastSink 推送到 WebSocket/SSE 订阅者,主题为 AggregateID
type BroadcastSink struct {
	targets []Broadcaster
}

// NewBroadcastSink 创建实时推送目标
func NewBroadcastSink(targets ...Broadcaster) *BroadcastSink {
	return &BroadcastSink{targets: targets}
}

// Name 目标名称
func (s *BroadcastSink) Name() string { return "broadcast" }

// Deliver 推送不会失败,慢订阅者会被丢弃
func (s *BroadcastSink) Deliver(_ context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	for _, t := range s.targets {
		t.Publish(evt.AggregateID, body)
	}
	return nil
}
