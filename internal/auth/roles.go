package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 业务角色,对应 Keycloak realm role
const (
	RoleRM        = "rm"
	RoleCreator   = "creator"
	RoleChecker   = "checker"
	RoleCoChecker = "co_checker"
	RoleAdmin     = "admin"
)

// rolePriority 多角色用户取优先级最高的作为主角色
var rolePriority = []string{RoleAdmin, RoleChecker, RoleCoChecker, RoleCreator, RoleRM}

// RolesFromContext 读取认证中间件写入的角色
func RolesFromContext(c *gin.Context) []string {
	v, ok := c.Get("roles")
	if !ok {
		return nil
	}
	roles, _ := v.([]string)
	return roles
}

// HasRole 是否拥有任一角色
func HasRole(roles []string, want ...string) bool {
	for _, r := range roles {
		for _, w := range want {
			if r == w {
				return true
			}
		}
	}
	return false
}

// PrimaryRole 返回主角色,没有业务角色时返回空串
func PrimaryRole(roles []string) string {
	for _, candidate := range rolePriority {
		if HasRole(roles, candidate) {
			return candidate
		}
	}
	return ""
}

// RequireRole 要求用户至少拥有一个角色,admin 始终放行
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRoles := RolesFromContext(c)
		if HasRole(userRoles, RoleAdmin) || HasRole(userRoles, roles...) {
			c.Next()
			return
		}
		c.JSON(http.StatusForbidden, gin.H{
			"code":    403,
			"message": "forbidden",
		})
		c.Abort()
	}
}
