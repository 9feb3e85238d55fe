package redis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/menav/internal/config"
	"github.com/MrSnakeDoc/menav/internal/logger"
)

type fakePinger struct {
	failures int
	calls    int
}

func (f *fakePinger) Ping(ctx context.Context) *redis.StatusCmd {
	f.calls++
	if f.calls <= f.failures {
		return redis.NewStatusResult("", errors.New("connection refused"))
	}
	return redis.NewStatusResult("PONG", nil)
}

func testRetry() retryConfig {
	return retryConfig{
		maxWait:       20 * time.Millisecond,
		pingTimeout:   50 * time.Millisecond,
		initialWait:   5 * time.Millisecond,
		totalTimeout:  time.Second,
		warnThreshold: 1,
	}
}

func TestConnectWithRetry(t *testing.T) {
	tests := []struct {
		name         string
		failures     int
		totalTimeout time.Duration
		wantAttempts int
		wantErr      bool
	}{
		{"first attempt", 0, time.Second, 1, false},
		{"after retries", 2, time.Second, 3, false},
		{"gives up at timeout", 1000, 60 * time.Millisecond, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePinger{failures: tt.failures}
			retry := testRetry()
			retry.totalTimeout = tt.totalTimeout

			attempts, err := connectWithRetry(context.Background(), p, "test:6379", retry,
				&connectionLogger{logger: logger.NewNop()})

			if (err != nil) != tt.wantErr {
				t.Fatalf("connectWithRetry() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && attempts != tt.wantAttempts {
				t.Errorf("attempts = %d, want %d", attempts, tt.wantAttempts)
			}
		})
	}
}

func TestConnectWithRetryCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := connectWithRetry(ctx, &fakePinger{failures: 1000}, "test:6379", testRetry(),
		&connectionLogger{logger: logger.NewNop()})
	if err == nil {
		t.Fatal("connectWithRetry() should fail on a canceled context")
	}
}

func TestValidate(t *testing.T) {
	valid := ConnectOptions{
		Addr:           "localhost:6379",
		ConnectTimeout: time.Second,
		RetryInterval:  time.Millisecond,
		MaxWait:        time.Second,
		PingTimeout:    time.Second,
	}

	if err := valid.Validate(); err != nil {
		t.Errorf("Validate(valid) = %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(o *ConnectOptions)
		wantErr string
	}{
		{"empty addr", func(o *ConnectOptions) { o.Addr = "" }, "addr"},
		{"zero connect timeout", func(o *ConnectOptions) { o.ConnectTimeout = 0 }, "ConnectTimeout"},
		{"zero retry interval", func(o *ConnectOptions) { o.RetryInterval = 0 }, "RetryInterval"},
		{"zero max wait", func(o *ConnectOptions) { o.MaxWait = 0 }, "MaxWait"},
		{"zero ping timeout", func(o *ConnectOptions) { o.PingTimeout = 0 }, "PingTimeout"},
		{"negative warn threshold", func(o *ConnectOptions) { o.WarnThreshold = -1 }, "WarnThreshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := valid
			tt.mutate(&opts)
			err := opts.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error mentioning %s", err, tt.wantErr)
			}
		})
	}
}

func TestValidateReportsAll(t *testing.T) {
	err := ConnectOptions{}.Validate()
	if err == nil {
		t.Fatal("Validate() on zero options should fail")
	}
	for _, field := range []string{"addr", "ConnectTimeout", "RetryInterval", "MaxWait", "PingTimeout"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("Validate() = %v, missing %s", err, field)
		}
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	if _, err := New(context.Background(), ConnectOptions{}, logger.NewNop()); err == nil {
		t.Fatal("New() with invalid options should fail")
	}
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{
		RedisAddr:           "cache:6379",
		RedisDB:             3,
		RedisConnectTimeout: 30 * time.Second,
		RedisWarnThreshold:  5,
	}

	opts := FromConfig(cfg)
	if opts.Addr != "cache:6379" || opts.RedisDB != 3 || opts.ConnectTimeout != 30*time.Second || opts.WarnThreshold != 5 {
		t.Errorf("FromConfig() = %+v", opts)
	}
	if o := opts.Options(); o.ClientName != ClientName || o.DB != 3 {
		t.Errorf("Options() = %+v", o)
	}
}
