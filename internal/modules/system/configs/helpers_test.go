package configs

import (
	"reflect"
	"testing"

	"github.com/phrasebox/core/internal/config"
)

func TestDeepMergeJSONMergesNestedMaps(t *testing.T) {
	oldVal := map[string]interface{}{
		"site": map[string]interface{}{"name": "PhraseBox", "keywords": []interface{}{"a", "b"}},
		"url":  map[string]interface{}{"web_url": "https://example.com"},
	}
	newVal := map[string]interface{}{
		"site": map[string]interface{}{"name": "Renamed", "keywords": []interface{}{"c"}},
	}

	merged, ok := deepMergeJSON(oldVal, newVal).(map[string]interface{})
	if !ok {
		t.Fatal("merge result is not a map")
	}

	site := merged["site"].(map[string]interface{})
	if site["name"] != "Renamed" {
		t.Errorf("name = %v, want Renamed", site["name"])
	}
	if !reflect.DeepEqual(site["keywords"], []interface{}{"c"}) {
		t.Errorf("arrays must be replaced whole, got %v", site["keywords"])
	}
	if _, ok := merged["url"]; !ok {
		t.Error("untouched sibling section dropped by merge")
	}
}

func TestDeepMergeJSONScalarReplaces(t *testing.T) {
	if got := deepMergeJSON("old", "new"); got != "new" {
		t.Errorf("scalar merge = %v, want new", got)
	}
	if got := deepMergeJSON(map[string]interface{}{"a": 1}, "flat"); got != "flat" {
		t.Errorf("type change merge = %v, want flat", got)
	}
}

func TestNormalizeMailOptionsLiftsFlatSMTPFields(t *testing.T) {
	in := map[string]interface{}{
		"enable": true,
		"smtp": map[string]interface{}{
			"host":   "smtp.example.com",
			"port":   float64(465),
			"secure": true,
			"options": map[string]interface{}{
				"auth": map[string]interface{}{"user": "u"},
			},
		},
	}

	out := normalizeConfigSection("mail_options", in).(map[string]interface{})
	smtp := out["smtp"].(map[string]interface{})

	if _, ok := smtp["host"]; ok {
		t.Error("flat host not removed")
	}
	options := smtp["options"].(map[string]interface{})
	if options["host"] != "smtp.example.com" || options["port"] != float64(465) || options["secure"] != true {
		t.Errorf("flat fields not lifted into options: %v", options)
	}
	if _, ok := options["auth"]; !ok {
		t.Error("existing options entries lost")
	}
}

func TestNormalizeConfigSectionPassthrough(t *testing.T) {
	in := map[string]interface{}{"anything": true}
	out := normalizeConfigSection("feature_list", in)
	if !reflect.DeepEqual(in, out) {
		t.Errorf("non-mail section modified: %v", out)
	}
}

func TestHasEnabledAIProvider(t *testing.T) {
	if hasEnabledAIProvider(nil) {
		t.Error("empty provider list reported as enabled")
	}
	providers := []config.AIProvider{
		{ID: "a", Enabled: false},
		{ID: "b", Enabled: true},
	}
	if !hasEnabledAIProvider(providers) {
		t.Error("enabled provider not detected")
	}
}
