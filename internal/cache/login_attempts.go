package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type LoginAttemptLimiter interface {
	// 檢查：email 是否仍可嘗試登入
	Allowed(ctx context.Context, email string) (bool, error)
	// 紀錄：登入失敗一次，回傳目前失敗次數 (使用Lua腳本確保原子性)
	RecordFailure(ctx context.Context, email string) (int, error)
	// 清除：登入成功後清除失敗紀錄
	Reset(ctx context.Context, email string) error
}

type RedisLoginAttemptLimiterImpl struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

// NewRedisLoginAttemptLimiter locks an email out after maxAttempts failures inside window.
// A maxAttempts of zero disables the limiter.
func NewRedisLoginAttemptLimiter(client *redis.Client, maxAttempts int, window time.Duration) LoginAttemptLimiter {
	return &RedisLoginAttemptLimiterImpl{
		client:      client,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

// 失敗次數 key
func (m *RedisLoginAttemptLimiterImpl) getAttemptsKey(email string) string {
	return fmt.Sprintf("login:%s:failures", strings.ToLower(strings.TrimSpace(email)))
}

func (m *RedisLoginAttemptLimiterImpl) Allowed(ctx context.Context, email string) (bool, error) {
	if m.maxAttempts <= 0 {
		return true, nil
	}
	count, err := m.client.Get(ctx, m.getAttemptsKey(email)).Int()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return count < m.maxAttempts, nil
}

/*
*

	紀錄登入失敗 (使用Lua腳本確保原子性)
	1. 增加失敗次數
	2. 第一次失敗時設定視窗過期時間
*/
func (m *RedisLoginAttemptLimiterImpl) RecordFailure(ctx context.Context, email string) (int, error) {
	if m.maxAttempts <= 0 {
		return 0, nil
	}
	key := m.getAttemptsKey(email)

	script := `
		-- 1. 取得參數
		local attempts_key = KEYS[1]
		local window_ms = tonumber(ARGV[1])

		-- 2. 增加失敗次數
		local count = redis.call('INCR', attempts_key)

		-- 3. 第一次失敗才設定過期，視窗不因後續失敗而延長
		if count == 1 then
			redis.call('PEXPIRE', attempts_key, window_ms)
		end

		return count
	`

	count, err := m.client.Eval(ctx, script, []string{key}, m.window.Milliseconds()).Int()
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (m *RedisLoginAttemptLimiterImpl) Reset(ctx context.Context, email string) error {
	if m.maxAttempts <= 0 {
		return nil
	}
	return m.client.Del(ctx, m.getAttemptsKey(email)).Err()
}
