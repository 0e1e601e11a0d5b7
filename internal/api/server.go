package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	chainerrors "ChainKit/internal/errors"
	"ChainKit/internal/multicall"
	"ChainKit/internal/observability/metrics"
	"ChainKit/internal/web3/ethereum"
	"ChainKit/internal/web3/networks"
	"ChainKit/pkg/logger"
)

// ClientProvider 提供链配置与只读客户端，provider.Factory 满足该接口。
type ClientProvider interface {
	Registry() *networks.Registry
	ReadOnlyClient(ctx context.Context, chainID networks.ChainID) (*ethereum.Client, error)
}

// Server 负责暴露 REST 接口，供外部查询链配置并执行批量只读调用。
type Server struct {
	addr          string
	clients       ClientProvider
	aggregator    *multicall.Aggregator
	log           *slog.Logger
	timeout       time.Duration
	maxBodyBytes  int64
	exposeMetrics bool
}

// Option 用于定制 Server。
type Option func(*Server)

// WithRequestTimeout 限制单个请求的处理时长。
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// WithMaxBodyBytes 限制请求体大小。
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) { s.maxBodyBytes = n }
}

// WithMetrics 在 API 服务上挂载 /metrics。
func WithMetrics(enabled bool) Option {
	return func(s *Server) { s.exposeMetrics = enabled }
}

// NewServer 构造 API 服务实例。
func NewServer(addr string, clients ClientProvider, aggregator *multicall.Aggregator, opts ...Option) *Server {
	s := &Server{
		addr:         addr,
		clients:      clients,
		aggregator:   aggregator,
		log:          logger.Named("api"),
		timeout:      30 * time.Second,
		maxBodyBytes: 1 << 20,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler 返回完整的路由，便于测试直接驱动。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/networks", s.instrument("networks", s.handleListNetworks))
	mux.Handle("GET /api/v1/networks/{chain}", s.instrument("network_detail", s.handleNetworkDetail))
	mux.Handle("POST /api/v1/multicall", s.instrument("multicall", s.handleMulticall))
	if s.exposeMetrics {
		mux.Handle("GET /metrics", metrics.Handler())
	}
	return mux
}

// Start 启动 HTTP 服务，直到上下文取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	// 配置 HTTP 服务器。
	server := &http.Server{
		Addr:              s.addr,
		Handler:           withContext(ctx, s.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// 启动服务器并监听关闭信号。
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.log.Info("api server listening", "addr", s.addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// instrument 为处理器附加超时与指标采集。
func (s *Server) instrument(name string, handler http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		ctx := r.Context()
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		handler(rec, r.WithContext(ctx))

		metrics.ObserveHTTPRequest(name, r.Method, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    chainerrors.Code  `json:"code"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"metadata,omitempty"`
}

// statusOf 将错误码映射为 HTTP 状态码。
func statusOf(err error) int {
	switch chainerrors.CodeOf(err) {
	case chainerrors.CodeConfigNotFound, chainerrors.CodeAccountNotFound:
		return http.StatusNotFound
	case chainerrors.CodeInvalidArgument:
		return http.StatusBadRequest
	case chainerrors.CodeCallFailed:
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	body := errorBody{Error: errorDetail{Code: chainerrors.CodeOf(err), Message: err.Error()}}
	if coded, ok := chainerrors.From(err); ok {
		body.Error.Meta = coded.Metadata()
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// withContext 确保请求处理能够感知根上下文取消。
func withContext(ctx context.Context, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			http.Error(w, "服务已关闭", http.StatusServiceUnavailable)
			return
		default:
		}
		handler.ServeHTTP(w, r)
	})
}
