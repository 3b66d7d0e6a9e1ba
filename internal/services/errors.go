package services

import "errors"

// ========== 业务状态错误 ==========
// 处理器按错误类型映射HTTP返回：状态类 -> 400，越权类 -> 403

var (
	// 预订
	ErrRoomUnavailable         = errors.New("房间已满，暂不可预订")
	ErrDuplicateActiveBooking  = errors.New("已存在进行中的租约，不能重复预订")
	ErrInvalidPaymentSignature = errors.New("支付签名校验失败")
	ErrDurationTooShort        = errors.New("租期不能少于30天")

	// 合同
	ErrNotAuthorizedToSign   = errors.New("无权签署该合同")
	ErrNotContractOwner      = errors.New("只有合同房东才能执行该操作")
	ErrContractAlreadyActive = errors.New("合同已生效")
	ErrContractClosed        = errors.New("合同已结束")
	ErrContractNotPayable    = errors.New("合同未完成支付或签署")

	// 订阅
	ErrNotSubscriptionOwner   = errors.New("无权操作该订阅")
	ErrSubscriptionClosed     = errors.New("订阅已取消或过期")
	ErrSubscriptionNotActive  = errors.New("订阅未处于生效状态")
	ErrSubscriptionNotPaused  = errors.New("订阅未处于暂停状态")
	ErrInvalidSubscriptionPlan = errors.New("无效的套餐类型")

	// 房源
	ErrRoomOccupied  = errors.New("房间仍有住户，不能删除")
	ErrNotHostelOwner = errors.New("只有房源所有者才能执行该操作")
)
