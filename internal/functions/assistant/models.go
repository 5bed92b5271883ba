// internal/functions/assistant/models.go
package assistant

type Input struct {
	Query      string      `json:"query"`
	Section    string      `json:"section"`
	TargetLang string      `json:"targetLang"`
	UserLocale string      `json:"userLocale"`
	Context    interface{} `json:"context"`
}

// Fallback is the answer shape when the model did not return JSON.
type Fallback struct {
	Language string `json:"language"`
	Answer   string `json:"answer"`
}
