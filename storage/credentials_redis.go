package storage

import (
	"context"
	"errors"
	"fmt"
	"github.com/alex-pricope/family-portal/logging"
	"github.com/redis/go-redis/v9"
	"time"
)

type RedisCredentialStore struct {
	Client    redis.Cmdable
	KeyPrefix string
}

func NewRedisCredentialStoreFromURL(rawURL, keyPrefix string) (*RedisCredentialStore, error) {
	options, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisCredentialStore{
		Client:    redis.NewClient(options),
		KeyPrefix: keyPrefix,
	}, nil
}

func (s *RedisCredentialStore) key(kind, username string) string {
	if s.KeyPrefix == "" {
		return kind + ":" + username
	}
	return s.KeyPrefix + ":" + kind + ":" + username
}

func (s *RedisCredentialStore) PutOTP(ctx context.Context, username, otp string, ttl time.Duration) error {
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key("otp", username), otp, ttl)
		pipe.Del(ctx, s.key("otp-attempts", username))
		return nil
	})
	if err != nil {
		logging.Log.Errorf("CREDENTIALS: redis set otp failed: %v", err)
		return err
	}
	return nil
}

// consumeOTPScript deletes the OTP on a match. Otherwise it bumps the attempt
// counter, which shares the OTP's expiry, and drops both once the limit is hit.
var consumeOTPScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
	return 0
end
if v == ARGV[1] then
	redis.call('DEL', KEYS[1], KEYS[2])
	return 1
end
local n = redis.call('INCR', KEYS[2])
if n == 1 then
	local ttl = redis.call('PTTL', KEYS[1])
	if ttl > 0 then
		redis.call('PEXPIRE', KEYS[2], ttl)
	end
end
if n >= tonumber(ARGV[2]) then
	redis.call('DEL', KEYS[1], KEYS[2])
end
return 0
`)

func (s *RedisCredentialStore) ConsumeOTP(ctx context.Context, username, otp string) (bool, error) {
	keys := []string{s.key("otp", username), s.key("otp-attempts", username)}
	matched, err := consumeOTPScript.Run(ctx, s.Client, keys, otp, MaxOTPAttempts).Int()
	if err != nil {
		logging.Log.Errorf("CREDENTIALS: redis consume otp failed: %v", err)
		return false, err
	}
	return matched == 1, nil
}

func (s *RedisCredentialStore) SetPasswordHash(ctx context.Context, username, hash string) error {
	if err := s.Client.Set(ctx, s.key("password", username), hash, 0).Err(); err != nil {
		logging.Log.Errorf("CREDENTIALS: redis set password failed: %v", err)
		return err
	}
	return nil
}

func (s *RedisCredentialStore) GetPasswordHash(ctx context.Context, username string) (string, error) {
	return s.get(ctx, s.key("password", username))
}

func (s *RedisCredentialStore) get(ctx context.Context, key string) (string, error) {
	val, err := s.Client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrItemNotFound
		}
		logging.Log.Errorf("CREDENTIALS: redis get %s failed: %v", key, err)
		return "", err
	}
	return val, nil
}
