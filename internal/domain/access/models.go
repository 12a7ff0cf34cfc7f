package access

import (
	"time"
)

// Status is the classification captured on a persisted access event.
type Status string

const (
	StatusAuthorized   Status = "Authorized"
	StatusUnauthorized Status = "Unauthorized"
	StatusManual       Status = "Manual"
)

// Outcome is the per-detection result reported by the decision pipeline.
// Only Authorized and Unauthorized outcomes correspond to a persisted event.
type Outcome string

const (
	OutcomeAuthorized   Outcome = "authorized"
	OutcomeUnauthorized Outcome = "unauthorized"
	OutcomeSuppressed   Outcome = "suppressed"
	OutcomeSkippedEmpty Outcome = "skipped_empty"
	OutcomeUnknown      Outcome = "unknown"
)

// OCRFragment is one raw text fragment with its horizontal anchor
// inside the detected region.
type OCRFragment struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
}

// Box is an axis-aligned bounding box in pixel coordinates.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Region is one candidate plate region produced by the detector.
type Region struct {
	Box        Box           `json:"box"`
	Confidence float64       `json:"confidence"`
	Fragments  []OCRFragment `json:"fragments"`
}

// Detection is one frame's worth of detector output. Ephemeral, never persisted.
type Detection struct {
	CameraID   string                 `json:"camera_id,omitempty"`
	Regions    []Region               `json:"regions"`
	RawPayload map[string]interface{} `json:"raw_payload,omitempty"`
}

// AccessEvent is one immutable, persisted access decision or manual action.
// Plate, VehicleType and Owner hold "-" for manual actions.
type AccessEvent struct {
	ID          int64                  `json:"id"`
	Plate       string                 `json:"plate"`
	VehicleType string                 `json:"vehicle_type"`
	Owner       string                 `json:"owner"`
	Status      Status                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	RawPayload  map[string]interface{} `json:"raw_payload,omitempty"`
}

// WhitelistEntry is one pre-authorized plate with its metadata.
type WhitelistEntry struct {
	Plate       string `json:"plate"`
	VehicleType string `json:"vehicle_type"`
	Owner       string `json:"owner"`
}

// RegionDecision is the pipeline's result for a single surviving region.
type RegionDecision struct {
	Plate     string       `json:"plate,omitempty"`
	Outcome   Outcome      `json:"outcome"`
	Event     *AccessEvent `json:"event,omitempty"`
	GateError string       `json:"gate_error,omitempty"`
}

// Decision is the pipeline's result for a single-plate request
// (the decision-request and manual-override entry points).
type Decision struct {
	Plate     string       `json:"plate,omitempty"`
	Outcome   Outcome      `json:"outcome"`
	Event     *AccessEvent `json:"event,omitempty"`
	GateError string       `json:"gate_error,omitempty"`
}
