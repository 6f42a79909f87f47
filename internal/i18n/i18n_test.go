package i18n

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		header string
		want   Language
	}{
		{"en-US,en;q=0.9", English},
		{"en", English},
		{"vi-VN", Vietnamese},
		{"fr-FR", Vietnamese},
		{"", Vietnamese},
		{"fr;q=0.9, en;q=0.5", English},
		{"not a header;;", Vietnamese},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.header, Vietnamese))
		})
	}
	assert.Equal(t, English, Match("de", English), "fallback is configurable")
}

func TestCatalog(t *testing.T) {
	c := NewCatalog(Vietnamese)
	c.Register("user", Table{
		English:    {"userExists": "User already exists"},
		Vietnamese: {"userExists": "Người dùng đã tồn tại", "onlyVi": "chỉ tiếng Việt"},
	})

	assert.Equal(t, "Field 'email' is required", c.T("required", English, map[string]string{"field": "email"}))
	assert.Equal(t, "Trường 'password' phải có ít nhất 6 ký tự",
		c.T("minLength", Vietnamese, map[string]string{"field": "password", "min": "6"}))
	assert.Equal(t, "User already exists", c.T("userExists", English, nil))
	assert.Equal(t, "chỉ tiếng Việt", c.T("onlyVi", English, nil), "falls back to the default language")
	assert.Equal(t, "unknownKey", c.T("unknownKey", English, nil), "falls back to the key")
	assert.Equal(t, []string{"user"}, c.Modules())
}

func TestFromRequest(t *testing.T) {
	c := NewCatalog(Vietnamese)
	r := httptest.NewRequest("GET", "/", nil)
	assert.Equal(t, Vietnamese, c.FromRequest(r))
	r.Header.Set("Accept-Language", "en-GB")
	assert.Equal(t, English, c.FromRequest(r))

	assert.Equal(t, English, Parse(" EN ", Vietnamese))
	assert.Equal(t, Vietnamese, Parse("jp", Vietnamese))
}
