// Package sentiment 评论情感分析服务客户端
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// AnalyzePath 分析接口路径
const AnalyzePath = "/api/comment/analyze"

// 分析服务返回的结果状态
const (
	StatusSuccess = "success"
	StatusBlock   = "block"
)

// ErrDependencyDegraded 分析服务不可用、超时或返回了无法识别的结果
var ErrDependencyDegraded = errors.New("sentiment: analyzer degraded")

// Analyzer 评论分析器接口
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*Result, error)
}

// DimensionResult 单个维度的分析结果，score 为两位小数的字符串
type DimensionResult struct {
	Label string `json:"label"`
	Score string `json:"score"`
}

// Result 分析结果
type Result struct {
	Blocked    bool                       `json:"blocked"`
	Reason     string                     `json:"reason,omitempty"`
	Dimensions map[string]DimensionResult `json:"dimensions,omitempty"`
}

// Polarity 维度情感倾向
type Polarity int8

// 取值与评价表的维度字段一致
const (
	PolarityNegative Polarity = 0
	PolarityNeutral  Polarity = 1
	PolarityPositive Polarity = 2
	PolarityAbsent   Polarity = 3
)

// ParseLabel 将分析服务的标签文本转换为情感倾向
// 标签形如 "😍 好评 (Positive)"，按关键字匹配
func ParseLabel(label string) Polarity {
	switch {
	case label == "":
		return PolarityAbsent
	case strings.Contains(label, "差评") || strings.Contains(label, "Negative"):
		return PolarityNegative
	case strings.Contains(label, "中立") || strings.Contains(label, "Neutral"):
		return PolarityNeutral
	case strings.Contains(label, "好评") || strings.Contains(label, "Positive"):
		return PolarityPositive
	}
	return PolarityAbsent
}

// Config 客户端配置
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// HTTPClient 基于 HTTP 的分析服务客户端
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient 创建分析服务客户端，请求经 otelhttp 传播追踪上下文
func NewHTTPClient(cfg Config) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type analyzeRequest struct {
	Text string `json:"text"`
}

type analyzeResponse struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Result *struct {
		Status string                     `json:"status"`
		Reason string                     `json:"reason"`
		Data   map[string]DimensionResult `json:"data"`
	} `json:"result"`
}

// Analyze 调用分析服务
// 拦截结论以 Result.Blocked 返回；其余任何失败都包装为 ErrDependencyDegraded
func (c *HTTPClient) Analyze(ctx context.Context, text string) (*Result, error) {
	body, err := json.Marshal(analyzeRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrDependencyDegraded, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+AnalyzePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrDependencyDegraded, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDependencyDegraded, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: unexpected http status %d", ErrDependencyDegraded, resp.StatusCode)
	}

	var out analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrDependencyDegraded, err)
	}
	if out.Code != http.StatusOK || out.Result == nil {
		return nil, fmt.Errorf("%w: code=%d msg=%s", ErrDependencyDegraded, out.Code, out.Msg)
	}

	switch out.Result.Status {
	case StatusBlock:
		return &Result{Blocked: true, Reason: out.Result.Reason}, nil
	case StatusSuccess:
		return &Result{Dimensions: out.Result.Data}, nil
	}
	return nil, fmt.Errorf("%w: unknown result status %q", ErrDependencyDegraded, out.Result.Status)
}
