package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"stayhub/pkg/config"
	"stayhub/pkg/logger"

	"github.com/google/uuid"
)

// Verifier 支付网关签名校验器
// 网关回调签名 = HMAC-SHA256(secret, orderID + "|" + paymentID) 的hex编码
type Verifier struct {
	keyID           string
	secret          string
	allowTestOrders bool   // 显式开关：放行测试订单（默认关闭）
	testOrderPrefix string // 测试订单号前缀
}

// Order 网关订单描述（返回给前端拉起支付）
type Order struct {
	OrderID  string `json:"order_id"`
	Receipt  string `json:"receipt"`
	Amount   int64  `json:"amount"`   // 单位：分
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
	Purpose  string `json:"purpose"` // booking/subscription
	Created  int64  `json:"created"`
}

// NewVerifier 创建签名校验器
func NewVerifier(keyID, secret string, allowTestOrders bool, testOrderPrefix string) *Verifier {
	return &Verifier{
		keyID:           keyID,
		secret:          secret,
		allowTestOrders: allowTestOrders,
		testOrderPrefix: testOrderPrefix,
	}
}

// NewVerifierFromConfig 从全局配置创建签名校验器
func NewVerifierFromConfig() *Verifier {
	cfg := config.GetConfig()
	return NewVerifier(
		cfg.Payment.KeyID,
		cfg.Payment.KeySecret,
		cfg.Payment.AllowTestOrders,
		cfg.Payment.TestOrderPrefix,
	)
}

// NewOrder 创建网关订单描述
func (v *Verifier) NewOrder(amount int64, purpose string) *Order {
	return &Order{
		OrderID:  "order_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:20],
		Receipt:  "rcpt_" + uuid.New().String(),
		Amount:   amount,
		Currency: "INR",
		KeyID:    v.keyID,
		Purpose:  purpose,
		Created:  time.Now().Unix(),
	}
}

// Sign 计算订单签名
func (v *Verifier) Sign(orderID, paymentID string) string {
	// 构造待签名字符串
	stringToSign := fmt.Sprintf("%s|%s", orderID, paymentID)

	// HMAC-SHA256签名
	h := hmac.New(sha256.New, []byte(v.secret))
	h.Write([]byte(stringToSign))

	return hex.EncodeToString(h.Sum(nil))
}

// Verify 校验网关回调签名
// 任一字段缺失一律拒绝；签名比较为常量时间
func (v *Verifier) Verify(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}

	// 测试订单放行：必须显式打开开关且订单号带约定前缀
	if v.allowTestOrders && v.testOrderPrefix != "" && strings.HasPrefix(orderID, v.testOrderPrefix) {
		logger.GetLogger().Warnf("测试订单跳过签名校验: %s", orderID)
		return true
	}

	expected := v.Sign(orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// KeyID 返回网关Key ID
func (v *Verifier) KeyID() string {
	return v.keyID
}
