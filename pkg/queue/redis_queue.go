package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisQueue Redis通知队列实现
type RedisQueue struct {
	client *redis.Client
	prefix string
}

// NotifyMessage 队列中的通知消息
type NotifyMessage struct {
	RecipientID uint                   `json:"recipient_id"` // 接收人ID
	Kind        string                 `json:"kind"`         // 通知类型：booking_created/contract_approved/...
	Title       string                 `json:"title"`
	Body        string                 `json:"body"`
	Params      map[string]interface{} `json:"params"`
	Created     int64                  `json:"created"`
}

// Config Redis配置
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
}

// NewRedisQueue 创建Redis队列实例
func NewRedisQueue(config *Config) *RedisQueue {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})

	prefix := config.Prefix
	if prefix == "" {
		prefix = "stayhub:notify"
	}

	return &RedisQueue{
		client: client,
		prefix: prefix,
	}
}

// Close 关闭Redis连接
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// Ping 测试Redis连接
func (q *RedisQueue) Ping() error {
	ctx := context.Background()
	return q.client.Ping(ctx).Err()
}

// GetClient 获取底层Redis客户端（WebSocket订阅使用）
func (q *RedisQueue) GetClient() *redis.Client {
	return q.client
}

// Enqueue 将通知加入队列并发布到接收人频道
func (q *RedisQueue) Enqueue(recipientID uint, kind, title, body string, params map[string]interface{}) error {
	ctx := context.Background()

	message := NotifyMessage{
		RecipientID: recipientID,
		Kind:        kind,
		Title:       title,
		Body:        body,
		Params:      params,
		Created:     time.Now().Unix(),
	}

	// 序列化消息
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("序列化通知消息失败: %v", err)
	}

	// 加入队列（左侧入队），外部投递器（邮件/短信）从右侧消费
	queueKey := q.getQueueKey()
	if err := q.client.LPush(ctx, queueKey, data).Err(); err != nil {
		return fmt.Errorf("通知入队失败: %v", err)
	}

	// 发布到接收人频道，供WebSocket实时推送
	if err := q.client.Publish(ctx, q.ChannelKey(recipientID), data).Err(); err != nil {
		return fmt.Errorf("通知发布失败: %v", err)
	}

	return nil
}

// Dequeue 从队列取出一条通知（阻塞，供投递器消费）
func (q *RedisQueue) Dequeue(timeout time.Duration) (*NotifyMessage, error) {
	ctx := context.Background()

	result, err := q.client.BRPop(ctx, timeout, q.getQueueKey()).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // 超时，队列为空
		}
		return nil, err
	}

	// BRPop返回 [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("队列返回格式异常")
	}

	var message NotifyMessage
	if err := json.Unmarshal([]byte(result[1]), &message); err != nil {
		return nil, fmt.Errorf("解析通知消息失败: %v", err)
	}

	return &message, nil
}

// QueueLength 获取当前队列长度
func (q *RedisQueue) QueueLength() (int64, error) {
	ctx := context.Background()
	return q.client.LLen(ctx, q.getQueueKey()).Result()
}

// ChannelKey 接收人实时推送频道
func (q *RedisQueue) ChannelKey(recipientID uint) string {
	return fmt.Sprintf("%s:user:%d", q.prefix, recipientID)
}

// getQueueKey 通知队列键
func (q *RedisQueue) getQueueKey() string {
	return q.prefix + ":outbox"
}
