package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/lvdashuaibi/ledgervote/config"
	"github.com/lvdashuaibi/ledgervote/internal/model"
)

const (
	// Redis键前缀，{kind} 作为哈希标签保证同类键落在同一个槽
	SnapshotKeyPrefix = "ledgervote:"

	// 仅当代数未变化时写入快照，避免失效之后被旧数据覆盖
	SetSnapshotScript = `
		local gen = redis.call('GET', KEYS[2]) or '0'
		if gen ~= ARGV[1] then
			return 0
		end
		redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
		return 1
	`

	// 删除该类实体的全部快照并递增代数
	InvalidateScript = `
		for i = 2, #KEYS do
			redis.call('DEL', KEYS[i])
		end
		return redis.call('INCR', KEYS[1])
	`
)

// SnapshotKey 某个接口响应体的缓存键
func SnapshotKey(kind model.Kind, endpoint string) string {
	return fmt.Sprintf("%s{%s}:snapshot:%s", SnapshotKeyPrefix, kind, endpoint)
}

// GenerationKey 某类实体的快照代数键
func GenerationKey(kind model.Kind) string {
	return fmt.Sprintf("%s{%s}:generation", SnapshotKeyPrefix, kind)
}

// RedisRepository 接口响应快照缓存，多个实例共享
type RedisRepository struct {
	client       *redis.Client
	ttl          time.Duration
	logger       *zap.SugaredLogger
	scriptHashes map[string]string // 存储脚本SHA1哈希值
}

func NewRedisRepository(ctx context.Context, cfg config.RedisConfig, logger *zap.SugaredLogger) (*RedisRepository, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.DataAddress,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("Redis数据节点连接测试失败: %w", err)
	}

	repo := &RedisRepository{
		client:       client,
		ttl:          cfg.SnapshotTTL,
		logger:       logger.With("module", "snapshot-cache"),
		scriptHashes: make(map[string]string),
	}

	if err := repo.preloadScripts(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("预加载Lua脚本失败: %w", err)
	}

	return repo, nil
}

// preloadScripts 预加载所有Lua脚本
func (r *RedisRepository) preloadScripts(ctx context.Context) error {
	for name, script := range map[string]string{
		"setSnapshot": SetSnapshotScript,
		"invalidate":  InvalidateScript,
	} {
		sha1, err := r.client.ScriptLoad(ctx, script).Result()
		if err != nil {
			return fmt.Errorf("加载脚本 %s 失败: %w", name, err)
		}
		r.scriptHashes[name] = sha1
	}
	return nil
}

// evalScript 执行预加载脚本，Redis重启丢失脚本时重新加载一次
func (r *RedisRepository) evalScript(ctx context.Context, name, script string, keys []string, args ...interface{}) (interface{}, error) {
	sha1, ok := r.scriptHashes[name]
	if !ok {
		return nil, fmt.Errorf("脚本 %s 未预加载", name)
	}

	result, err := r.client.EvalSha(ctx, sha1, keys, args...).Result()
	if err == nil || !strings.HasPrefix(err.Error(), "NOSCRIPT") {
		return result, err
	}

	sha1, err = r.client.ScriptLoad(ctx, script).Result()
	if err != nil {
		return nil, fmt.Errorf("重新加载脚本 %s 失败: %w", name, err)
	}
	r.scriptHashes[name] = sha1
	return r.client.EvalSha(ctx, sha1, keys, args...).Result()
}

// Generation 读取快照代数，拉取数据前记录，写回时比对
func (r *RedisRepository) Generation(ctx context.Context, kind model.Kind) (string, error) {
	gen, err := r.client.Get(ctx, GenerationKey(kind)).Result()
	if err != nil {
		if err == redis.Nil {
			return "0", nil
		}
		return "", fmt.Errorf("获取快照代数失败: %w", err)
	}
	return gen, nil
}

// GetSnapshot 从缓存获取接口响应体
func (r *RedisRepository) GetSnapshot(ctx context.Context, kind model.Kind, endpoint string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, SnapshotKey(kind, endpoint)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil // 缓存未命中
		}
		return nil, false, fmt.Errorf("获取快照缓存失败: %w", err)
	}
	return data, true, nil
}

// SetSnapshot 写入快照，代数已变化时放弃写入并返回false
func (r *RedisRepository) SetSnapshot(ctx context.Context, kind model.Kind, endpoint, generation string, body []byte) (bool, error) {
	if r.ttl <= 0 {
		return false, nil
	}
	result, err := r.evalScript(ctx, "setSnapshot", SetSnapshotScript,
		[]string{SnapshotKey(kind, endpoint), GenerationKey(kind)},
		generation, body, r.ttl.Milliseconds())
	if err != nil {
		return false, fmt.Errorf("设置快照缓存失败: %w", err)
	}
	written, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("LUA脚本返回类型错误")
	}
	if written == 0 {
		r.logger.Debugw("快照代数已变化，跳过写入", "kind", kind, "endpoint", endpoint)
	}
	return written == 1, nil
}

// Invalidate 删除该类实体的快照，写操作之后调用
func (r *RedisRepository) Invalidate(ctx context.Context, kind model.Kind, endpoints ...string) error {
	keys := make([]string, 0, len(endpoints)+1)
	keys = append(keys, GenerationKey(kind))
	for _, endpoint := range endpoints {
		keys = append(keys, SnapshotKey(kind, endpoint))
	}
	if _, err := r.evalScript(ctx, "invalidate", InvalidateScript, keys); err != nil {
		return fmt.Errorf("删除快照缓存失败: %w", err)
	}
	return nil
}

// Close 关闭Redis连接
func (r *RedisRepository) Close() error {
	return r.client.Close()
}
