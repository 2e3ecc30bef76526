package ai

// GeneratePayload is the task payload for phrase aid generation.
type GeneratePayload struct {
	ResponseID   string `json:"response_id"`
	UserID       string `json:"user_id"`
	LanguageCode string `json:"language_code"`
}

type generateDTO struct {
	ResponseID string `json:"response_id" binding:"required"`
}

type generatedAids struct {
	Breakdown string `json:"breakdown"`
	Reading   string `json:"reading"`
}

type modelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type providerModelsResponse struct {
	ProviderID   string      `json:"provider_id"`
	ProviderName string      `json:"provider_name"`
	ProviderType string      `json:"provider_type"`
	Models       []modelInfo `json:"models"`
	Error        string      `json:"error,omitempty"`
}
