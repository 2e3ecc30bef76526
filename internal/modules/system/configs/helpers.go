package configs

import (
	"github.com/phrasebox/core/internal/config"
)

func deepMergeJSON(oldVal, newVal interface{}) interface{} {
	oldMap, oldIsMap := oldVal.(map[string]interface{})
	newMap, newIsMap := newVal.(map[string]interface{})
	if oldIsMap && newIsMap {
		out := make(map[string]interface{}, len(oldMap))
		for k, v := range oldMap {
			out[k] = v
		}
		for k, v := range newMap {
			if existing, ok := out[k]; ok {
				out[k] = deepMergeJSON(existing, v)
				continue
			}
			out[k] = v
		}
		return out
	}

	// Arrays should be replaced as a whole.
	if _, ok := newVal.([]interface{}); ok {
		return newVal
	}

	return newVal
}

func hasEnabledAIProvider(providers []config.AIProvider) bool {
	for _, provider := range providers {
		if provider.Enabled {
			return true
		}
	}
	return false
}

func normalizeConfigSection(key string, v interface{}) interface{} {
	switch key {
	case "mail_options":
		return normalizeMailOptions(v)
	default:
		return v
	}
}

// normalizeMailOptions lifts legacy flat smtp fields (host, port, secure at
// the top level) into smtp.options so old payloads keep working.
func normalizeMailOptions(v interface{}) interface{} {
	mailMap, ok := v.(map[string]interface{})
	if !ok {
		return v
	}

	smtpRaw, ok := mailMap["smtp"]
	if !ok || smtpRaw == nil {
		return mailMap
	}

	smtpMap, ok := smtpRaw.(map[string]interface{})
	if !ok {
		return mailMap
	}

	optionsMap := map[string]interface{}{}
	if rawOptions, ok := smtpMap["options"]; ok && rawOptions != nil {
		if parsedOptions, ok := rawOptions.(map[string]interface{}); ok {
			for key, value := range parsedOptions {
				optionsMap[key] = value
			}
		}
	}

	if host, ok := smtpMap["host"]; ok {
		optionsMap["host"] = host
	}
	if port, ok := smtpMap["port"]; ok {
		optionsMap["port"] = port
	}
	if secure, ok := smtpMap["secure"]; ok {
		optionsMap["secure"] = secure
	}

	if len(optionsMap) > 0 {
		smtpMap["options"] = optionsMap
	}

	delete(smtpMap, "host")
	delete(smtpMap, "port")
	delete(smtpMap, "secure")

	mailMap["smtp"] = smtpMap
	return mailMap
}
