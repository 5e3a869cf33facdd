package handler

import (
	"github.com/gin-gonic/gin"

	"wardroster/internal/service"
	"wardroster/pkg/response"
)

// MustGetActor 从 Gin 上下文中安全提取当前操作者。
// 如果 JWT 中间件未正确注入 user_id/role，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetActor(c *gin.Context) (service.Actor, bool) {
	userID, ok := getContextString(c, "user_id")
	if !ok || userID == "" {
		response.Unauthorized(c, 10002, "未认证")
		return service.Actor{}, false
	}
	role, ok := getContextString(c, "role")
	if !ok || role == "" {
		response.Unauthorized(c, 10002, "未认证")
		return service.Actor{}, false
	}
	// ward_id 允许为空（管理员可能不隶属具体病区）
	wardID, _ := getContextString(c, "ward_id")

	return service.Actor{UserID: userID, Role: role, WardID: wardID}, true
}

func getContextString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
