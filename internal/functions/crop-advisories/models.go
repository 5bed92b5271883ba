// internal/functions/crop-advisories/models.go
package cropadvisories

type Input struct {
	Crop        string `json:"crop"`
	Region      string `json:"region"`
	BypassCache bool   `json:"bypassCache"`
}

type Output struct {
	Crop       string      `json:"crop"`
	Region     string      `json:"region"`
	Advisories interface{} `json:"advisories"`
	FromCache  bool        `json:"fromCache"`
}
