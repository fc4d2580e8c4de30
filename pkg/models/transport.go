package models

// DetectionRequest is the body of POST /detect.
type DetectionRequest struct {
	URL                 string   `json:"url" binding:"required,url"`
	MaxSideSize         int      `json:"max_side_size,omitempty"`
	ConfidenceThreshold *float64 `json:"confidence_threshold,omitempty"`
	IoUThreshold        *float64 `json:"iou_threshold,omitempty"`
	DownsampleFactor    int      `json:"downsample_factor,omitempty"`
	Annotate            bool     `json:"annotate,omitempty"`
}

// DetectionResponse is the aggregated result of one detection run.
type DetectionResponse struct {
	ImageURL          string           `json:"image_url"`
	ImageWidth        int              `json:"image_width"`
	ImageHeight       int              `json:"image_height"`
	ChipCount         int              `json:"chip_count"`
	Detections        []FinalDetection `json:"detections"`
	AnnotatedImage    string           `json:"annotated_image,omitempty"`
	ProcessingTimeSec float64          `json:"processing_time_sec"`
}

// ErrorResponse is the JSON body returned for failed requests.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
