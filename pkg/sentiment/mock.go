package sentiment

import (
	"context"
	"sync"
)

// MockClient 本地开发用的分析器，分析服务未启用时替代 HTTPClient
type MockClient struct {
	mu     sync.Mutex
	result *Result
	err    error
	calls  int
}

// NewMockClient 创建返回固定结果的分析器，result 为 nil 时所有维度都未提及
func NewMockClient(result *Result, err error) *MockClient {
	return &MockClient{result: result, err: err}
}

// Analyze 返回预设结果
func (m *MockClient) Analyze(ctx context.Context, text string) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &Result{Dimensions: map[string]DimensionResult{}}, nil
	}
	return m.result, nil
}

// Calls 返回调用次数
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
