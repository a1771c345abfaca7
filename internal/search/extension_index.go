package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/mautops/deferral-gin/internal/config"
)

// ExtensionDocument 延期申请索引文档
type ExtensionDocument struct {
	ID                  string     `json:"id"`
	DeferralNumber      string     `json:"deferralNumber"`
	DCLNumber           string     `json:"dclNumber"`
	CustomerName        string     `json:"customerName"`
	LoanType            string     `json:"loanType"`
	Status              string     `json:"status"`
	RequestedDaysSought int        `json:"requestedDaysSought"`
	CurrentDueDate      *time.Time `json:"currentDueDate,omitempty"`
}

// ExtensionIndex Elasticsearch 中的延期申请索引
type ExtensionIndex struct {
	client *elasticsearch.Client
	index  string
}

// NewExtensionIndex 创建索引客户端
func NewExtensionIndex(cfg config.SearchConfig) (*ExtensionIndex, error) {
	esCfg := elasticsearch.Config{Addresses: cfg.Addresses}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}
	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	index := cfg.Index
	if index == "" {
		index = "extensions"
	}
	return &ExtensionIndex{client: client, index: index}, nil
}

// Ping 检查集群连通性
func (x *ExtensionIndex) Ping(ctx context.Context) error {
	res, err := x.client.Ping(x.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

// Index 写入或覆盖延期申请文档
func (x *ExtensionIndex) Index(ctx context.Context, doc ExtensionDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      x.index,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(body),
		Refresh:    "wait_for",
	}
	res, err := req.Do(ctx, x.client)
	if err != nil {
		return fmt.Errorf("index extension %s: %w", doc.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index extension %s failed: %s", doc.ID, res.String())
	}
	return nil
}

// buildQuery 构造搜索请求体
func buildQuery(query, status string, size int) map[string]interface{} {
	boolQuery := map[string]interface{}{}
	if q := strings.TrimSpace(query); q != "" {
		pattern := "*" + strings.ToLower(q) + "*"
		should := make([]interface{}, 0, 4)
		for _, field := range []string{"deferralNumber", "dclNumber", "customerName", "loanType"} {
			should = append(should, map[string]interface{}{
				"wildcard": map[string]interface{}{
					field + ".keyword": map[string]interface{}{"value": pattern, "case_insensitive": true},
				},
			})
		}
		boolQuery["should"] = should
		boolQuery["minimum_should_match"] = 1
	}
	if status != "" {
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{"term": map[string]interface{}{"status.keyword": status}},
		}
	}
	return map[string]interface{}{
		"query":   map[string]interface{}{"bool": boolQuery},
		"size":    size,
		"_source": false,
		"sort":    []interface{}{map[string]interface{}{"_score": "desc"}},
	}
}

// Search 搜索延期申请,返回匹配的 ID 列表
func (x *ExtensionIndex) Search(ctx context.Context, query, status string, size int) ([]string, error) {
	if size <= 0 {
		size = 20
	}
	body, err := json.Marshal(buildQuery(query, status, size))
	if err != nil {
		return nil, err
	}
	req := esapi.SearchRequest{
		Index: []string{x.index},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, x.client)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search failed: %s", res.String())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}
