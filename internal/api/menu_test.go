package api_test

import (
	"testing"

	"github.com/mautops/deferral-gin/internal/api"
	"github.com/stretchr/testify/assert"
)

func menuKeys(items []api.MenuItem) []string {
	keys := make([]string, 0, len(items))
	for _, item := range items {
		keys = append(keys, item.Key)
	}
	return keys
}

// TestMenuForRoles 测试按主角色生成导航
func TestMenuForRoles(t *testing.T) {
	identity := func(key string) string { return key }

	tests := []struct {
		roles []string
		want  []string
	}{
		{[]string{"checker"}, []string{"myQueue", "completed", "deferrals", "reports"}},
		{[]string{"co_checker"}, []string{"myQueue", "completed", "deferrals"}},
		{[]string{"creator"}, []string{"myChecklists", "completed", "deferrals"}},
		{[]string{"rm"}, []string{"myChecklists", "deferrals", "reports"}},
		{[]string{"rm", "admin"}, []string{"dashboard", "allUsers", "liveUsers", "auditLogs"}},
		{[]string{"creator", "checker"}, []string{"myQueue", "completed", "deferrals", "reports"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, menuKeys(api.MenuForRoles(tt.roles, identity)), tt.roles)
	}

	assert.Empty(t, api.MenuForRoles(nil, identity))
}

// TestMenuForRoles_Translate 测试标签翻译
func TestMenuForRoles_Translate(t *testing.T) {
	items := api.MenuForRoles([]string{"admin"}, func(key string) string { return "T:" + key })
	assert.Equal(t, "T:menu.dashboard", items[0].Label)
	assert.Equal(t, "layout", items[0].Icon)
}
