// internal/functions/crop-calendar/models.go
package cropcalendar

type Input struct {
	Crop   string   `json:"crop"`
	Region string   `json:"region"`
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
}
