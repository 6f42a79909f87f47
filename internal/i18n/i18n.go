// Package i18n holds the message catalog shared by modules and picks the
// response language from Accept-Language.
package i18n

import (
	"net/http"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// Language is a supported response language.
type Language string

const (
	English    Language = "en"
	Vietnamese Language = "vi"
)

// Supported lists the languages in matcher preference order.
var Supported = []Language{Vietnamese, English}

var matcher = language.NewMatcher([]language.Tag{language.Vietnamese, language.English})

// Parse returns the Language named by s, or fallback when s is not supported.
func Parse(s string, fallback Language) Language {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case English:
		return English
	case Vietnamese:
		return Vietnamese
	default:
		return fallback
	}
}

// Match picks the best supported language for an Accept-Language header.
func Match(acceptLanguage string, fallback Language) Language {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return fallback
	}
	return Supported[index]
}

// Table maps message keys to templates for each language.
type Table map[Language]map[string]string

var common = Table{
	English: {
		"required":  "Field '$field' is required",
		"email":     "Field '$field' must be a valid email",
		"minLength": "Field '$field' must have at least $min characters",
		"maxLength": "Field '$field' must have at most $max characters",
		"invalid":   "Invalid request data",
		"notFound":  "Not found",
		"internal":  "Internal server error",
	},
	Vietnamese: {
		"required":  "$field không được để trống",
		"email":     "Trường '$field' phải là email hợp lệ",
		"minLength": "Trường '$field' phải có ít nhất $min ký tự",
		"maxLength": "Trường '$field' chỉ được có tối đa $max ký tự",
		"invalid":   "Dữ liệu không hợp lệ",
		"notFound":  "Không tìm thấy",
		"internal":  "Lỗi máy chủ nội bộ",
	},
}

// Catalog merges the common messages with those registered by modules.
// It is safe for concurrent use.
type Catalog struct {
	fallback Language

	mu       sync.RWMutex
	messages map[Language]map[string]string
	modules  []string
}

// NewCatalog creates a catalog whose fallback language is fallback.
func NewCatalog(fallback Language) *Catalog {
	c := &Catalog{fallback: fallback, messages: make(map[Language]map[string]string)}
	c.merge(common)
	return c
}

// Default returns the fallback language.
func (c *Catalog) Default() Language { return c.fallback }

// Register adds a module's messages. Keys already present are replaced.
func (c *Catalog) Register(module string, table Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modules = append(c.modules, module)
	c.mergeLocked(table)
}

// Modules lists registered module names in registration order.
func (c *Catalog) Modules() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.modules...)
}

func (c *Catalog) merge(table Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mergeLocked(table)
}

func (c *Catalog) mergeLocked(table Table) {
	for lang, entries := range table {
		dst, ok := c.messages[lang]
		if !ok {
			dst = make(map[string]string, len(entries))
			c.messages[lang] = dst
		}
		for k, v := range entries {
			dst[k] = v
		}
	}
}

// T translates key into lang. Missing keys fall back to the catalog's
// default language and then to the key itself. Each "$name" placeholder
// is replaced by params["name"], quoted forms included.
func (c *Catalog) T(key string, lang Language, params map[string]string) string {
	c.mu.RLock()
	template, ok := c.messages[lang][key]
	if !ok {
		template, ok = c.messages[c.fallback][key]
	}
	c.mu.RUnlock()
	if !ok {
		template = key
	}

	for name, value := range params {
		template = strings.ReplaceAll(template, "$"+name, value)
	}
	return template
}

// FromRequest returns the language preferred by r.
func (c *Catalog) FromRequest(r *http.Request) Language {
	return Match(r.Header.Get("Accept-Language"), c.fallback)
}
