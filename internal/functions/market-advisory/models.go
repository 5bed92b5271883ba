// internal/functions/market-advisory/models.go
package marketadvisory

type Input struct {
	Crop        string `json:"crop"`
	State       string `json:"state"`
	Region      string `json:"region"`
	BypassCache bool   `json:"bypassCache"`
}

type Output struct {
	Crop      string      `json:"crop"`
	State     string      `json:"state"`
	Advisory  interface{} `json:"advisory"`
	FromCache bool        `json:"fromCache"`
}
