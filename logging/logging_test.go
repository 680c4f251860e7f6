package logging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dpup/currenturl/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
)

func observed(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, obs := observer.New(level)
	return FromZap(zap.New(core)), obs
}

func fieldMap(e observer.LoggedEntry) map[string]interface{} {
	return e.ContextMap()
}

func TestTrack(t *testing.T) {
	logger, observedLogs := observed(zap.InfoLevel)

	ctx := With(context.Background(), logger)
	Track(ctx, "foo", "bar") // Should be passed on to child logger.

	ctx2 := With(ctx, FromContext(ctx).Named("nested"))
	Track(ctx2, "baz", "bam") // Should not propagate to root logger.

	Info(ctx, "root log")
	Info(ctx2, "nested log")

	require.Equal(t, 2, observedLogs.Len())
	allLogs := observedLogs.All()
	assert.Equal(t, "root log", allLogs[0].Message)
	assert.ElementsMatch(t, []zap.Field{
		zap.String("foo", "bar"),
	}, allLogs[0].Context)

	assert.Equal(t, "nested log", allLogs[1].Message)
	assert.ElementsMatch(t, []zap.Field{
		zap.String("foo", "bar"),
		zap.String("baz", "bam"),
	}, allLogs[1].Context)
}

func TestFromContextWithoutLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		Infow(context.Background(), "dropped", "key", "value")
		Track(context.Background(), "key", "value")
	})
	assert.Same(t, nopLogger, FromContext(context.Background()))
}

func TestEnsureLogger(t *testing.T) {
	logger, _ := observed(zap.InfoLevel)
	ctx := With(context.Background(), logger)
	assert.Equal(t, ctx, EnsureLogger(ctx), "existing logger is kept")

	ctx = EnsureLogger(context.Background())
	assert.IsType(t, &ZapLogger{}, FromContext(ctx))
}

func TestNewLogger(t *testing.T) {
	assert.IsType(t, &ZapLogger{}, NewLogger(true))
	assert.IsType(t, &ZapLogger{}, NewLogger(false))
}

func TestZapLoggerLevels(t *testing.T) {
	logger, obs := observed(zap.DebugLevel)

	logger.Debugw("debug message", "key", "value")
	logger.Infof("info: %s %d", "test", 42)
	logger.Warn("warn message")
	logger.Errorw("error message", "key", "value")

	require.Equal(t, 4, obs.Len())
	entries := obs.All()
	assert.Equal(t, zap.DebugLevel, entries[0].Level)
	assert.Contains(t, entries[0].Context, zap.String("key", "value"))
	assert.Equal(t, "info: test 42", entries[1].Message)
	assert.Equal(t, zap.WarnLevel, entries[2].Level)
	assert.Equal(t, zap.ErrorLevel, entries[3].Level)
}

func TestZapLoggerNamedWith(t *testing.T) {
	logger, obs := observed(zap.InfoLevel)

	logger.Named("child").With("k", "v").Info("hello")

	require.Equal(t, 1, obs.Len())
	entry := obs.All()[0]
	assert.Equal(t, "child", entry.LoggerName)
	assert.Contains(t, entry.Context, zap.String("k", "v"))
}

func TestMiddleware(t *testing.T) {
	logger, obs := observed(zap.InfoLevel)

	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Track(r.Context(), "handler.field", "tracked")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	req := httptest.NewRequest(http.MethodGet, "https://example.com/pot?size=small", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	req = req.WithContext(With(req.Context(), logger))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
	require.Equal(t, 1, obs.Len())

	entry := obs.All()[0]
	assert.Equal(t, "http request", entry.Message)
	assert.Equal(t, zap.WarnLevel, entry.Level)
	assert.Equal(t, "http", entry.LoggerName)

	fields := fieldMap(entry)
	assert.Equal(t, "req-123", fields["req.id"])
	assert.Equal(t, "tracked", fields["handler.field"])
	assert.Equal(t, "https://example.com/pot?size=small", fields["req.url"])
	assert.EqualValues(t, http.StatusTeapot, fields["resp.status"])
	assert.EqualValues(t, len("short and stout"), fields["resp.bytes"])
}

func TestMiddlewareGeneratesRequestID(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
}

func TestInterceptor(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/currenturl.v1.URLService/Resolve"}

	t.Run("success", func(t *testing.T) {
		logger, obs := observed(zap.InfoLevel)
		ctx := With(context.Background(), logger)

		resp, err := Interceptor()(ctx, "req", info, func(ctx context.Context, req any) (any, error) {
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", resp)

		finished := obs.FilterMessage("finished call").All()
		require.Len(t, finished, 1)
		assert.Equal(t, info.FullMethod, finished[0].LoggerName)
		assert.Equal(t, "OK", fieldMap(finished[0])["grpc.code"])
	})

	t.Run("error", func(t *testing.T) {
		logger, obs := observed(zap.InfoLevel)
		ctx := With(context.Background(), logger)

		_, err := Interceptor()(ctx, "req", info, func(ctx context.Context, req any) (any, error) {
			return nil, errors.NewC("bad url", codes.InvalidArgument)
		})
		require.Error(t, err)

		finished := obs.FilterMessage("finished call").All()
		require.Len(t, finished, 1)
		fields := fieldMap(finished[0])
		assert.Equal(t, "*errors.Error", fields["error.type"])
		assert.EqualValues(t, http.StatusBadRequest, fields["error.http_status"])
		assert.NotEmpty(t, fields["error.stack_trace"])
	})

	t.Run("panic", func(t *testing.T) {
		logger, obs := observed(zap.InfoLevel)
		ctx := With(context.Background(), logger)

		resp, err := Interceptor()(ctx, "req", info, func(ctx context.Context, req any) (any, error) {
			panic("boom")
		})
		require.Error(t, err)
		assert.Nil(t, resp)
		assert.Equal(t, "boom", err.Error())

		finished := obs.FilterMessage("finished call").All()
		require.Len(t, finished, 1)
		assert.Equal(t, true, fieldMap(finished[0])["error.panic"])
	})
}
