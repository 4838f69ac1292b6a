package qna

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/converse/internal/domain"
	"github.com/kailas-cloud/converse/internal/domain/answer"
	"github.com/kailas-cloud/converse/internal/domain/dialog"
	"github.com/kailas-cloud/converse/internal/domain/feedback"
	"github.com/kailas-cloud/converse/internal/metrics"
)

// Config holds the answering-service connection settings. KnowledgeBaseID,
// Host and EndpointKey identify the knowledge base; a client cannot be
// constructed without all three.
type Config struct {
	KnowledgeBaseID string
	Host            string
	EndpointKey     string
	Timeout         time.Duration
	Logger          *zap.Logger
}

// Client queries and trains one knowledge base over HTTP.
type Client struct {
	http   *http.Client
	host   string
	kbID   string
	key    string
	logger *zap.Logger
}

// NewClient creates an answering-service client. Missing identity fields are a
// fatal configuration error, never retried.
func NewClient(cfg Config) (*Client, error) {
	if cfg.KnowledgeBaseID == "" || cfg.Host == "" || cfg.EndpointKey == "" {
		return nil, fmt.Errorf(
			"knowledge base id, host and endpoint key are all required: %w",
			domain.ErrMissingCredentials,
		)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		http:   &http.Client{Timeout: timeout},
		host:   strings.TrimRight(cfg.Host, "/"),
		kbID:   cfg.KnowledgeBaseID,
		key:    cfg.EndpointKey,
		logger: logger,
	}, nil
}

// Query asks the knowledge base for ranked answers to the given question.
func (c *Client) Query(ctx context.Context, question string, opts dialog.QueryOptions) (answer.Response, error) {
	req := queryRequest{
		Question:       question,
		Top:            opts.Top,
		ScoreThreshold: opts.ScoreThreshold,
		RankerType:     string(opts.RankerMode),
		IsTest:         opts.IsTest,
	}
	if len(opts.Filters) > 0 {
		req.StrictFilters = make([]metadataPair, len(opts.Filters))
		for i, f := range opts.Filters {
			req.StrictFilters[i] = metadataPair{Name: f.Name, Value: f.Value}
		}
		req.FiltersJoinOperator = string(opts.JoinOperator)
	}
	if opts.ContextAnswerID > 0 {
		req.Context = &queryContext{PreviousAnswerID: opts.ContextAnswerID}
	}
	if opts.TargetAnswerID > 0 {
		req.AnswerID = opts.TargetAnswerID
	}

	start := time.Now()

	var resp queryResponse
	err := c.post(ctx, c.url("generateAnswer"), req, &resp)

	metrics.KBQueryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.KBQueriesTotal.WithLabelValues("error").Inc()
		return answer.Response{}, err
	}
	metrics.KBQueriesTotal.WithLabelValues("success").Inc()

	answers := make([]answer.Answer, 0, len(resp.Answers))
	for _, row := range resp.Answers {
		answers = append(answers, row.toDomain())
	}
	return answer.Response{
		Answers:               answers,
		ActiveLearningEnabled: resp.ActiveLearningEnabled,
	}, nil
}

// Train submits feedback records to the knowledge base. Fire-and-forget from
// the dialog's perspective: no retry here, failures propagate to the caller.
func (c *Client) Train(ctx context.Context, records []feedback.Record) error {
	if len(records) == 0 {
		return nil
	}

	req := trainRequest{FeedbackRecords: make([]feedbackRow, len(records))}
	for i := range records {
		req.FeedbackRecords[i] = feedbackRow{
			UserID:       records[i].UserID(),
			UserQuestion: records[i].UserQuestion(),
			AnswerID:     records[i].AnswerID(),
		}
	}

	if err := c.post(ctx, c.url("train"), req, nil); err != nil {
		metrics.FeedbackSubmissionsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.FeedbackSubmissionsTotal.WithLabelValues("success").Inc()
	return nil
}

// HealthCheck verifies the knowledge base is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/knowledgebases/%s", c.host, c.kbID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "EndpointKey "+c.key)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("knowledge base unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("knowledge base status %d: %w", resp.StatusCode, domain.ErrAnsweringService)
	}
	return nil
}

func (c *Client) url(op string) string {
	return fmt.Sprintf("%s/knowledgebases/%s/%s", c.host, c.kbID, op)
}

// post sends a JSON request. Non-2xx responses are wrapped with
// domain.ErrAnsweringService. A nil out skips response decoding.
func (c *Client) post(ctx context.Context, url string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "EndpointKey "+c.key)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("answering service request: %w: %w", domain.ErrAnsweringService, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("answering service error",
			zap.Int("status", resp.StatusCode),
			zap.String("url", url),
		)
		return fmt.Errorf("answering service status %d: %s: %w",
			resp.StatusCode, strings.TrimSpace(string(detail)), domain.ErrAnsweringService)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w: %w", domain.ErrAnsweringService, err)
	}
	return nil
}
