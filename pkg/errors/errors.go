package errors

// 业务响应码，与HTTP语义对齐
// 统一由pkg/response写进返回体的code字段，处理器不直接引用
const (
	CodeSuccess = 200

	CodeInvalidParam = 400 // 参数/状态校验失败（含支付签名不符、房间已满等业务拒绝）
	CodeUnauthorized = 401 // 未登录或令牌失效
	CodeForbidden    = 403 // 非当事人/角色不符
	CodeNotFound     = 404 // 资源不存在
	CodeServerError  = 500 // 内部错误
)
