package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"job-agent/internal/config"
	"job-agent/internal/session"

	"github.com/redis/go-redis/v9"
)

var errUnavailable = errors.New("redis unavailable")

// Redis persists the session pair under two keys per profile. Both keys are
// written in one MULTI/EXEC so a reader never sees one without the other. When
// Redis cannot be reached at startup every operation degrades: loads report no
// session and writes fail, which the session store treats as logged out.
type Redis struct {
	client  *redis.Client
	logger  *log.Logger
	profile string

	warnedUnavailable atomic.Bool
}

func NewRedis(cfg config.RedisConfig, profile string, logger *log.Logger) *Redis {
	addr := fmt.Sprintf("%s:%s", strings.TrimSpace(cfg.Host), strings.TrimSpace(cfg.Port))
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		if logger != nil {
			logger.Printf("[Cache] Redis unavailable, sessions will not persist: %v", err)
		}
		_ = client.Close()
		return &Redis{client: nil, logger: logger, profile: profile}
	}

	return NewRedisWithClient(client, profile, logger)
}

func NewRedisWithClient(client *redis.Client, profile string, logger *log.Logger) *Redis {
	if strings.TrimSpace(profile) == "" {
		profile = "default"
	}
	return &Redis{client: client, logger: logger, profile: profile}
}

func (r *Redis) isUnavailable() bool {
	return r == nil || r.client == nil
}

func (r *Redis) warnUnavailableOnce(err error) {
	if r == nil {
		return
	}
	if r.logger == nil {
		return
	}
	if r.warnedUnavailable.CompareAndSwap(false, true) {
		if err != nil {
			r.logger.Printf("[Cache] Redis unavailable, sessions will not persist: %v", err)
			return
		}
		r.logger.Printf("[Cache] Redis unavailable, sessions will not persist")
	}
}

func (r *Redis) tokenKey() string { return "session:" + r.profile + ":token" }
func (r *Redis) userKey() string  { return "session:" + r.profile + ":user" }

func (r *Redis) Ping(ctx context.Context) error {
	if r.isUnavailable() {
		return errUnavailable
	}
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Load(ctx context.Context) (session.Record, error) {
	if r.isUnavailable() {
		return session.Record{}, session.ErrNoSession
	}
	vals, err := r.client.MGet(ctx, r.tokenKey(), r.userKey()).Result()
	if err != nil {
		r.warnUnavailableOnce(err)
		return session.Record{}, err
	}

	token, _ := vals[0].(string)
	userJSON, _ := vals[1].(string)
	if token == "" || userJSON == "" {
		return session.Record{}, session.ErrNoSession
	}
	return session.Record{Token: token, User: []byte(userJSON)}, nil
}

func (r *Redis) Save(ctx context.Context, rec session.Record) error {
	if r.isUnavailable() {
		return errUnavailable
	}
	if rec.Token == "" || len(rec.User) == 0 {
		return errors.New("incomplete session record")
	}
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.tokenKey(), rec.Token, 0)
		p.Set(ctx, r.userKey(), rec.User, 0)
		return nil
	})
	if err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	return nil
}

// SaveUser overwrites the user key only if it already exists, which is only the
// case while the token key exists too.
func (r *Redis) SaveUser(ctx context.Context, user []byte) error {
	if r.isUnavailable() {
		return errUnavailable
	}
	if err := r.client.SetXX(ctx, r.userKey(), user, 0).Err(); err != nil && !errors.Is(err, redis.Nil) {
		r.warnUnavailableOnce(err)
		return err
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context) error {
	if r.isUnavailable() {
		return nil
	}
	if err := r.client.Del(ctx, r.tokenKey(), r.userKey()).Err(); err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	return nil
}

func (r *Redis) Close() error {
	if r.isUnavailable() {
		return nil
	}
	return r.client.Close()
}

var _ session.Storage = (*Redis)(nil)
