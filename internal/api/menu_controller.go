package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mautops/deferral-gin/internal/auth"
)

// MenuItem 侧边栏导航项
type MenuItem struct {
	Key   string `json:"key" example:"myQueue"`
	Label string `json:"label" example:"My Queue"`
	Icon  string `json:"icon" example:"inbox"`
}

type menuEntry struct {
	key  string
	icon string
}

// roleMenus 各主角色的导航
var roleMenus = map[string][]menuEntry{
	auth.RoleChecker: {
		{"myQueue", "inbox"},
		{"completed", "check-circle"},
		{"deferrals", "bar-chart-2"},
		{"reports", "bar-chart-2"},
	},
	auth.RoleCoChecker: {
		{"myQueue", "inbox"},
		{"completed", "check-circle"},
		{"deferrals", "bar-chart-2"},
	},
	auth.RoleCreator: {
		{"myChecklists", "file-text"},
		{"completed", "check-circle"},
		{"deferrals", "bar-chart-2"},
	},
	auth.RoleRM: {
		{"myChecklists", "file-text"},
		{"deferrals", "bar-chart-2"},
		{"reports", "bar-chart-2"},
	},
	auth.RoleAdmin: {
		{"dashboard", "layout"},
		{"allUsers", "users"},
		{"liveUsers", "activity"},
		{"auditLogs", "clock"},
	},
}

// MenuForRoles 按主角色生成导航,标签按语言翻译
func MenuForRoles(roles []string, translate func(key string) string) []MenuItem {
	entries := roleMenus[auth.PrimaryRole(roles)]
	items := make([]MenuItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, MenuItem{
			Key:   e.key,
			Label: translate("menu." + e.key),
			Icon:  e.icon,
		})
	}
	return items
}

// Menu 当前用户的导航
// @Summary      获取导航菜单
// @Description  按 Keycloak 主角色返回侧边栏导航
// @Tags         系统
// @Produce      json
// @Success      200  {object}  Response{data=[]MenuItem}
// @Router       /menu [get]
// @Security     BearerAuth
func Menu(ctx *gin.Context) {
	items := MenuForRoles(auth.RolesFromContext(ctx), func(key string) string {
		return T(ctx, key)
	})
	Success(ctx, gin.H{
		"role":  auth.PrimaryRole(auth.RolesFromContext(ctx)),
		"items": items,
	})
}
