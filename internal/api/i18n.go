package api

import (
	"embed"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

const defaultLanguage = "en"

//go:embed locales/*.yaml
var localeFS embed.FS

// I18nManager 国际化管理器
type I18nManager struct {
	mu       sync.RWMutex
	messages map[string]map[string]string // lang -> key -> message
}

var defaultI18nManager = mustLoadLocales()

func mustLoadLocales() *I18nManager {
	m := NewI18nManager()
	if err := m.LoadFS(localeFS, "locales"); err != nil {
		panic(err)
	}
	return m
}

// NewI18nManager 创建国际化管理器
func NewI18nManager() *I18nManager {
	return &I18nManager{
		messages: make(map[string]map[string]string),
	}
}

// LoadFS 加载目录下的 <lang>.yaml 消息文件
func (m *I18nManager) LoadFS(fsys embed.FS, dir string) error {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read locales: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		data, err := fsys.ReadFile(path.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("read locale %s: %w", e.Name(), err)
		}
		if err := m.LoadYAML(strings.TrimSuffix(e.Name(), ".yaml"), data); err != nil {
			return err
		}
	}
	return nil
}

// LoadYAML 解析扁平的 key: message 映射
func (m *I18nManager) LoadYAML(lang string, data []byte) error {
	messages := make(map[string]string)
	if err := yaml.Unmarshal(data, &messages); err != nil {
		return fmt.Errorf("parse locale %s: %w", lang, err)
	}
	m.LoadMessages(lang, messages)
	return nil
}

// LoadMessages 加载语言消息,与已有消息合并
func (m *I18nManager) LoadMessages(lang string, messages map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.messages[lang]
	if !ok {
		existing = make(map[string]string, len(messages))
		m.messages[lang] = existing
	}
	for k, v := range messages {
		existing[k] = v
	}
}

// Translate 翻译消息,找不到时回退英文,再回退 key
func (m *I18nManager) Translate(lang, key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if message, ok := m.messages[lang][key]; ok {
		return message
	}
	if message, ok := m.messages[defaultLanguage][key]; ok {
		return message
	}
	return key
}

// I18nMiddleware 国际化中间件,?lang= 优先于 Accept-Language
func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := defaultLanguage
		if queryLang := c.Query("lang"); queryLang != "" {
			lang = normalizeLanguage(queryLang)
		} else if headerLang := c.GetHeader("Accept-Language"); headerLang != "" {
			lang = parseAcceptLanguage(headerLang)
		}

		c.Set("language", lang)
		c.Next()
	}
}

// GetLanguage 从上下文获取语言
func GetLanguage(c *gin.Context) string {
	if lang := c.GetString("language"); lang != "" {
		return lang
	}
	return defaultLanguage
}

// T 翻译消息（使用默认管理器）
func T(c *gin.Context, key string) string {
	return defaultI18nManager.Translate(GetLanguage(c), key)
}

// normalizeLanguage zh-CN、zh-TW 等归并为 zh,en-US 等归并为 en
func normalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	switch {
	case strings.HasPrefix(lang, "zh"):
		return "zh"
	case strings.HasPrefix(lang, "en"):
		return "en"
	}
	return lang
}

// parseAcceptLanguage 取 Accept-Language 的第一个语言,如 zh-CN,zh;q=0.9,en;q=0.8
func parseAcceptLanguage(header string) string {
	first, _, _ := strings.Cut(header, ",")
	lang, _, _ := strings.Cut(first, ";")
	if strings.TrimSpace(lang) == "" {
		return defaultLanguage
	}
	return normalizeLanguage(lang)
}
