package api

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type SessionResponse struct {
	VideoID     string `json:"video_id"`
	URL         string `json:"url,omitempty"`
	Dirty       bool   `json:"dirty"`
	QueueLength int    `json:"queue_length"`
	Notice      string `json:"notice,omitempty"`
}

type SetVideoRequest struct {
	URL string `json:"url"`
}

type SetVideoResponse struct {
	VideoID string `json:"video_id"`
}

type ClipResponse struct {
	Index       int     `json:"index"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Downloaded  bool    `json:"downloaded"`
	Downloading bool    `json:"downloading"`
}

type ClipsResponse struct {
	VideoID string         `json:"video_id"`
	Clips   []ClipResponse `json:"clips"`
}

type NewClipResponse struct {
	Index int `json:"index"`
}

type EditTimeRequest struct {
	Field string  `json:"field"` // "start" or "end"
	Value float64 `json:"value"`
	Seek  bool    `json:"seek,omitempty"`
}

type QueueResponse struct {
	Length int `json:"length"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
