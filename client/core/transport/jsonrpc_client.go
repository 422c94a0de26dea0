package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	logInterface "github.com/weisyn/bounty/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/bounty/pkg/types"
)

// 节点返回的 JSON-RPC 错误码
const (
	ErrCodeNotFound         = -32004 // 应用或交易不存在
	ErrCodeContractRejected = -32010 // 合约逻辑拒绝
	ErrCodePoolRejected     = -32011 // 交易池拒绝（费用、余额、有效期）
)

// JSONRPCClient JSON-RPC 2.0 客户端实现
type JSONRPCClient struct {
	endpoint   string
	httpClient *http.Client
	logger     logInterface.Logger
	nextID     atomic.Uint64
}

var _ Client = (*JSONRPCClient)(nil)

// NewJSONRPCClient 创建JSON-RPC客户端
func NewJSONRPCClient(endpoint string, timeout time.Duration, logger logInterface.Logger) *JSONRPCClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &JSONRPCClient{
		endpoint: endpoint,
		logger:   logger,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// jsonrpcRequest JSON-RPC 2.0 请求
type jsonrpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      uint64        `json:"id"`
}

// jsonrpcResponse JSON-RPC 2.0 响应
type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonrpcError   `json:"error,omitempty"`
	ID      uint64          `json:"id"`
}

// jsonrpcError JSON-RPC 2.0 错误
type jsonrpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ledgerError 将节点错误码映射为结构化错误
func (e *jsonrpcError) ledgerError(method string) *types.LedgerError {
	msg := fmt.Sprintf("%s: %s", method, e.Message)
	switch e.Code {
	case ErrCodeNotFound:
		return types.NewLedgerError(types.CodeNotFound, msg, nil)
	case ErrCodeContractRejected:
		return types.NewLedgerError(types.CodeContractRejected, msg, nil)
	case ErrCodePoolRejected:
		return types.NewLedgerError(types.CodePoolRejected, msg, nil)
	default:
		return types.NewLedgerError(types.CodeUnknown, fmt.Sprintf("%s (code %d)", msg, e.Code), nil)
	}
}

// call 统一的JSON-RPC调用方法
func (c *JSONRPCClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	req := &jsonrpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return types.NewLedgerError(types.CodeUnknown, "marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return types.NewLedgerError(types.CodeTransport, "create http request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return types.NewLedgerError(types.CodeTransport, method, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil && c.logger != nil {
			c.logger.Debugf("关闭响应体失败: %v", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.NewLedgerError(types.CodeTransport, "read response", err)
	}

	var jsonResp jsonrpcResponse
	if err := json.Unmarshal(respBody, &jsonResp); err != nil {
		if resp.StatusCode >= http.StatusInternalServerError {
			return types.NewLedgerError(types.CodeTransport, fmt.Sprintf("%s: http %d", method, resp.StatusCode), nil)
		}
		return types.NewLedgerError(types.CodeUnknown, fmt.Sprintf("%s: unmarshal response", method), err)
	}

	if jsonResp.Error != nil {
		return jsonResp.Error.ledgerError(method)
	}

	if result != nil && len(jsonResp.Result) > 0 {
		if err := json.Unmarshal(jsonResp.Result, result); err != nil {
			return types.NewLedgerError(types.CodeUnknown, fmt.Sprintf("%s: unmarshal result", method), err)
		}
	}

	return nil
}

// ===== 接口实现 =====

// Status 获取节点最新轮次
func (c *JSONRPCClient) Status(ctx context.Context) (*NodeStatus, error) {
	var status NodeStatus
	if err := c.call(ctx, "ledger_status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// StatusAfterBlock 阻塞直到节点越过指定轮次
func (c *JSONRPCClient) StatusAfterBlock(ctx context.Context, round uint64) (*NodeStatus, error) {
	var status NodeStatus
	if err := c.call(ctx, "ledger_statusAfterBlock", []interface{}{round}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// SuggestedParams 获取建议交易参数
func (c *JSONRPCClient) SuggestedParams(ctx context.Context) (*types.SuggestedParams, error) {
	var sp types.SuggestedParams
	if err := c.call(ctx, "ledger_suggestedParams", nil, &sp); err != nil {
		return nil, err
	}
	if sp.LastValid < sp.FirstValid {
		return nil, types.NewLedgerError(types.CodeUnknown, "invalid suggested params: last valid before first valid", nil)
	}
	return &sp, nil
}

// SendRawTransaction 发送已签名交易组
func (c *JSONRPCClient) SendRawTransaction(ctx context.Context, group []*types.SignedTransaction) (string, error) {
	if len(group) == 0 {
		return "", types.NewLedgerError(types.CodeUnknown, "empty transaction group", nil)
	}
	var result struct {
		TxID string `json:"tx_id"`
	}
	if err := c.call(ctx, "ledger_sendRawTransaction", []interface{}{group}, &result); err != nil {
		return "", err
	}
	if result.TxID == "" {
		return "", types.NewLedgerError(types.CodeUnknown, "node returned empty transaction id", nil)
	}
	return result.TxID, nil
}

// PendingTransaction 查询交易状态
func (c *JSONRPCClient) PendingTransaction(ctx context.Context, txID string) (*PendingTransaction, error) {
	var pending PendingTransaction
	if err := c.call(ctx, "ledger_pendingTransaction", []interface{}{txID}, &pending); err != nil {
		return nil, err
	}
	return &pending, nil
}

// GetApplication 读取应用全局状态
func (c *JSONRPCClient) GetApplication(ctx context.Context, appID types.ContractID) (*Application, error) {
	var app Application
	if err := c.call(ctx, "ledger_getApplication", []interface{}{uint64(appID)}, &app); err != nil {
		return nil, err
	}
	if app.ID == 0 {
		return nil, types.NewLedgerError(types.CodeNotFound, fmt.Sprintf("application %d does not exist", appID), nil)
	}
	return &app, nil
}

// Compile 编译合约源码
func (c *JSONRPCClient) Compile(ctx context.Context, source []byte) ([]byte, error) {
	var result struct {
		Result []byte `json:"result"`
	}
	if err := c.call(ctx, "ledger_compile", []interface{}{string(source)}, &result); err != nil {
		return nil, err
	}
	if len(result.Result) == 0 {
		return nil, types.NewLedgerError(types.CodeUnknown, "compile returned empty program", nil)
	}
	return result.Result, nil
}

// IsNotFound 错误是否表示应用或交易不存在
func IsNotFound(err error) bool {
	var le *types.LedgerError
	return errors.As(err, &le) && le.Code == types.CodeNotFound
}
