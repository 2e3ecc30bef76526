package config

import (
	"encoding/json"
	"strings"
)

// FullConfig is the application config stored in the database (options table,
// key="configs"). Editable at runtime through the configs module.
type FullConfig struct {
	Site          SiteConfig    `json:"site"`
	URL           URLConfig     `json:"url"`
	MailOptions   MailOptions   `json:"mail_options"`
	FeatureList   FeatureList   `json:"feature_list"`
	DigestOptions DigestOptions `json:"digest_options"`
	AI            AIConfig      `json:"ai"`
}

type SiteConfig struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type URLConfig struct {
	WebURL    string `json:"web_url"`
	ServerURL string `json:"server_url"`
}

type MailOptions struct {
	Enable   bool          `json:"enable"`
	Provider string        `json:"provider"` // smtp | resend
	From     string        `json:"from"`
	SMTP     *SMTPConfig   `json:"smtp"`
	Resend   *ResendConfig `json:"resend"`
}

type SMTPOptions struct {
	Host   string `json:"host"`
	Port   int    `json:"port"`
	Secure bool   `json:"secure"`
}

type SMTPConfig struct {
	User    string      `json:"user"`
	Pass    string      `json:"pass"`
	Options SMTPOptions `json:"options"`
}

func (s SMTPConfig) MarshalJSON() ([]byte, error) {
	host := strings.TrimSpace(s.Options.Host)
	port := s.Options.Port
	if port == 0 {
		port = 465
	}
	secure := s.Options.Secure

	return json.Marshal(struct {
		User    string      `json:"user"`
		Pass    string      `json:"pass"`
		Host    string      `json:"host"`
		Port    int         `json:"port"`
		Secure  bool        `json:"secure"`
		Options SMTPOptions `json:"options"`
	}{
		User:   strings.TrimSpace(s.User),
		Pass:   s.Pass,
		Host:   host,
		Port:   port,
		Secure: secure,
		Options: SMTPOptions{
			Host:   host,
			Port:   port,
			Secure: secure,
		},
	})
}

// UnmarshalJSON tolerates both the nested {options:{...}} and the flattened
// legacy {host,port,secure,auth:{user,pass}} shapes.
func (s *SMTPConfig) UnmarshalJSON(data []byte) error {
	next := *s
	if next.Options.Port == 0 {
		next.Options.Port = 465
	}

	var raw struct {
		User    string `json:"user"`
		Pass    string `json:"pass"`
		Options *struct {
			Host   string `json:"host"`
			Port   int    `json:"port"`
			Secure *bool  `json:"secure"`
		} `json:"options"`
		Host   string `json:"host"`
		Port   int    `json:"port"`
		Secure *bool  `json:"secure"`
		Auth   *struct {
			User string `json:"user"`
			Pass string `json:"pass"`
		} `json:"auth"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.User != "" {
		next.User = strings.TrimSpace(raw.User)
	}
	if raw.Pass != "" {
		next.Pass = raw.Pass
	}
	if raw.Auth != nil {
		if next.User == "" {
			next.User = strings.TrimSpace(raw.Auth.User)
		}
		if next.Pass == "" {
			next.Pass = raw.Auth.Pass
		}
	}

	if raw.Options != nil {
		next.Options.Host = strings.TrimSpace(raw.Options.Host)
		if raw.Options.Port != 0 {
			next.Options.Port = raw.Options.Port
		}
		if raw.Options.Secure != nil {
			next.Options.Secure = *raw.Options.Secure
		}
	} else {
		if strings.TrimSpace(raw.Host) != "" {
			next.Options.Host = strings.TrimSpace(raw.Host)
		}
		if raw.Port != 0 {
			next.Options.Port = raw.Port
		}
		if raw.Secure != nil {
			next.Options.Secure = *raw.Secure
		}
	}

	if next.Options.Port == 0 {
		next.Options.Port = 465
	}
	*s = next
	return nil
}

type ResendConfig struct {
	APIKey string `json:"api_key"`
}

type FeatureList struct {
	EmailDigest      bool `json:"email_digest"`
	CommunitySharing bool `json:"community_sharing"`
}

// DigestOptions tunes daily summary generation and digest delivery.
type DigestOptions struct {
	ContentFormat        string `json:"content_format"` // standard | markdown
	DefaultLanguage      string `json:"default_language"`
	LanguageBatchSize    int    `json:"language_batch_size"`
	LanguageBatchPauseMS int    `json:"language_batch_pause_ms"`
	TagBatchSize         int    `json:"tag_batch_size"`
	TagBatchPauseMS      int    `json:"tag_batch_pause_ms"`
}

type AIConfig struct {
	Providers        []AIProvider       `json:"providers"`
	GenerationModel  *AIModelAssignment `json:"generation_model,omitempty"`
	EnableGeneration bool               `json:"enable_generation"`
}

type AIProvider struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"` // OpenAI | OpenAI-Compatible | Anthropic | OpenRouter
	APIKey       string `json:"api_key"`
	Endpoint     string `json:"endpoint,omitempty"`
	DefaultModel string `json:"default_model"`
	Enabled      bool   `json:"enabled"`
}

type AIModelAssignment struct {
	ProviderID string `json:"provider_id"`
	Model      string `json:"model"`
}

func (a *AIConfig) UnmarshalJSON(data []byte) error {
	next := *a
	var raw struct {
		Providers        *[]AIProvider   `json:"providers"`
		GenerationModel  json.RawMessage `json:"generation_model"`
		EnableGeneration *bool           `json:"enable_generation"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.Providers != nil {
		next.Providers = *raw.Providers
	}
	if raw.EnableGeneration != nil {
		next.EnableGeneration = *raw.EnableGeneration
	}
	if len(raw.GenerationModel) > 0 {
		parsed, err := parseAIModelAssignment(raw.GenerationModel, next.GenerationModel)
		if err != nil {
			return err
		}
		next.GenerationModel = parsed
	}

	*a = next
	return nil
}

// parseAIModelAssignment accepts either an object assignment or a bare model
// string from older clients.
func parseAIModelAssignment(raw json.RawMessage, fallback *AIModelAssignment) (*AIModelAssignment, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return fallback, nil
	}
	if trimmed == "null" {
		return nil, nil
	}

	var legacyModel string
	if err := json.Unmarshal(raw, &legacyModel); err == nil {
		legacyModel = strings.TrimSpace(legacyModel)
		if legacyModel == "" {
			return nil, nil
		}
		next := &AIModelAssignment{}
		if fallback != nil {
			*next = *fallback
		}
		next.Model = legacyModel
		return next, nil
	}

	next := &AIModelAssignment{}
	if fallback != nil {
		*next = *fallback
	}
	if err := json.Unmarshal(raw, next); err != nil {
		return nil, err
	}
	if strings.TrimSpace(next.ProviderID) == "" && strings.TrimSpace(next.Model) == "" {
		return nil, nil
	}
	return next, nil
}

// DefaultFullConfig returns the defaults persisted on first boot.
func DefaultFullConfig() FullConfig {
	return FullConfig{
		Site: SiteConfig{
			Name:        "PhraseBox",
			Description: "Your language study companion",
		},
		URL: URLConfig{
			ServerURL: "http://localhost:2333",
			WebURL:    "http://localhost:2323",
		},
		MailOptions: MailOptions{
			Enable:   false,
			Provider: "smtp",
			From:     "",
			SMTP: &SMTPConfig{
				User: "",
				Pass: "",
				Options: SMTPOptions{
					Host:   "",
					Port:   465,
					Secure: true,
				},
			},
			Resend: &ResendConfig{
				APIKey: "",
			},
		},
		FeatureList: FeatureList{
			EmailDigest:      false,
			CommunitySharing: true,
		},
		DigestOptions: DigestOptions{
			ContentFormat:        "standard",
			DefaultLanguage:      "ja",
			LanguageBatchSize:    2,
			LanguageBatchPauseMS: 1000,
			TagBatchSize:         10,
			TagBatchPauseMS:      100,
		},
		AI: AIConfig{
			Providers:        []AIProvider{},
			EnableGeneration: false,
		},
	}
}
