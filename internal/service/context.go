package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound 资源不存在
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden 当前用户无权执行该操作
	ErrForbidden = errors.New("operation not permitted for current user")
	// ErrInvalidToken 下载令牌无效
	ErrInvalidToken = errors.New("invalid download token")
)

// getUserIDFromContext 从 context 中获取用户ID
func getUserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	// 从 context 中获取用户ID（由认证中间件设置）
	if userID, ok := ctx.Value("user_id").(string); ok {
		return userID
	}
	return ""
}

// getUsernameFromContext 获取用户名,缺省回退到用户ID
func getUsernameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if name, ok := ctx.Value("username").(string); ok && name != "" {
		return name
	}
	return getUserIDFromContext(ctx)
}

// getRolesFromContext 获取用户角色
func getRolesFromContext(ctx context.Context) []string {
	if ctx == nil {
		return nil
	}
	if roles, ok := ctx.Value("roles").([]string); ok {
		return roles
	}
	return nil
}

// notFound 将 gorm 的未找到错误转换为 ErrNotFound
func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
