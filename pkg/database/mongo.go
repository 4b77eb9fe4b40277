package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/eshashah22/131-Insight/config"
	pkgerrors "github.com/eshashah22/131-Insight/pkg/errors"
)

// MongoConnector 进程级 MongoDB 连接句柄
//
// 首次调用 Collection 时才建立连接，之后复用同一个 *mongo.Client；
// 连接失败不缓存任何状态，下一次调用会重新尝试。
type MongoConnector struct {
	cfg    config.MongoConfig
	logger *zap.Logger

	mu     sync.Mutex
	client *mongo.Client
}

// NewMongoConnector 创建连接句柄（不立即连接）
func NewMongoConnector(cfg *config.MongoConfig, logger *zap.Logger) *MongoConnector {
	return &MongoConnector{cfg: *cfg, logger: logger}
}

// Collection 返回反馈集合，必要时建立连接
func (c *MongoConnector) Collection(ctx context.Context) (*mongo.Collection, error) {
	client, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(c.cfg.Database).Collection(c.cfg.Collection), nil
}

func (c *MongoConnector) connect(ctx context.Context) (*mongo.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}

	if err := c.cfg.ValidateURI(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrStoreUnavailable, err)
	}

	timeout := c.cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(c.cfg.URI))
	if err != nil {
		c.logger.Error("MongoDB 连接失败", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrStoreUnavailable, err)
	}
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		c.logger.Error("MongoDB ping 失败", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrStoreUnavailable, err)
	}

	c.logger.Info("MongoDB 连接成功",
		zap.String("database", c.cfg.Database),
		zap.String("collection", c.cfg.Collection),
	)
	c.client = client
	return client, nil
}

// Close 断开连接；未连接时无操作
func (c *MongoConnector) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	err := c.client.Disconnect(ctx)
	c.client = nil
	return err
}
