package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedCatalogsAreComplete(t *testing.T) {
	c, err := Load(DefaultLocale)
	require.NoError(t, err)

	assert.Equal(t, []string{"en", "de", "es", "tr"}, c.Locales())
	for _, l := range c.Locales()[1:] {
		missing, extra := MissingKeys(c.Base("en"), c.Base(l))
		assert.Empty(t, missing, "locale %s", l)
		assert.Empty(t, extra, "locale %s", l)
	}
}

func TestMatch(t *testing.T) {
	c, err := Load(DefaultLocale)
	require.NoError(t, err)

	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{"query wins", []string{"tr", "de", "es"}, "tr"},
		{"cookie when no query", []string{"", "de", "es"}, "de"},
		{"accept-language", []string{"", "", "fr-FR,es;q=0.8,en;q=0.5"}, "es"},
		{"regional variant", []string{"", "", "de-AT"}, "de"},
		{"unsupported query skipped", []string{"ja", "", "tr-TR"}, "tr"},
		{"fallback", []string{"", "", ""}, "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Match(tt.candidates...))
		})
	}
}

func TestTranslate(t *testing.T) {
	fsys := fstest.MapFS{
		"l/en.toml": {Data: []byte("[trial]\nremaining = \"{remaining} left\"\nonly_en = \"hi\"\n")},
		"l/tr.toml": {Data: []byte("[trial]\nremaining = \"{remaining} kaldı\"\n")},
	}
	c, err := LoadFS(fsys, "l", "en")
	require.NoError(t, err)

	assert.Equal(t, "2 kaldı", c.T("tr", "trial.remaining", "remaining", 2))
	assert.Equal(t, "hi", c.T("tr", "trial.only_en"))
	assert.Equal(t, "nope.key", c.T("tr", "nope.key"))

	c.SetOverride("tr", "trial.only_en", "selam")
	assert.Equal(t, "selam", c.T("tr", "trial.only_en"))
	assert.Equal(t, "selam", c.Messages("tr")["trial.only_en"])
	assert.Equal(t, "hi", c.Messages("en")["trial.only_en"])

	c.DeleteOverride("tr", "trial.only_en")
	assert.Equal(t, "hi", c.T("tr", "trial.only_en"))
}

func TestLoadRequiresDefault(t *testing.T) {
	fsys := fstest.MapFS{"l/tr.toml": {Data: []byte("a = \"b\"\n")}}
	_, err := LoadFS(fsys, "l", "en")
	require.Error(t, err)
}

func TestMissingKeys(t *testing.T) {
	missing, extra := MissingKeys(
		map[string]string{"a": "1", "b": "2", "c": "3"},
		map[string]string{"a": "1", "d": "4"},
	)
	assert.Equal(t, []string{"b", "c"}, missing)
	assert.Equal(t, []string{"d"}, extra)
}
