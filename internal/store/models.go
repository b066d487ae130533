package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type IntegrationStatus string

const (
	IntegrationConnected    IntegrationStatus = "connected"
	IntegrationDisconnected IntegrationStatus = "disconnected"
	IntegrationError        IntegrationStatus = "error"
)

// Integration is a configured connection to a camera provider.
type Integration struct {
	ID        uuid.UUID
	Kind      string // "dummy", "rtsp", "unifi"
	Name      string
	Enabled   bool
	Status    IntegrationStatus
	Config    json.RawMessage // opaque, provider-specific
	CreatedAt time.Time
}

type CameraStatus string

const (
	CameraOnline  CameraStatus = "online"
	CameraOffline CameraStatus = "offline"
	CameraError   CameraStatus = "error"
)

// Capabilities a camera reports from its integration.
type Capabilities struct {
	HasSpeaker   bool   `json:"has_speaker"`
	RTSPTemplate string `json:"rtsp_template,omitempty"`
}

// Camera is a physical device owned by exactly one Integration.
type Camera struct {
	ID            uuid.UUID
	IntegrationID uuid.UUID
	Name          string
	Status        CameraStatus
	ProviderID    string // opaque provider-side identifier
	Capabilities  Capabilities
	DeletedAt     *time.Time
	CreatedAt     time.Time
}

type DetectionStatus string

const (
	DetectionPending   DetectionStatus = "pending"
	DetectionProcessed DetectionStatus = "processed"
	DetectionDeterred  DetectionStatus = "deterred"
	DetectionFailed    DetectionStatus = "failed"
)

// Detection is a single observation event.
type Detection struct {
	ID            uuid.UUID
	CameraID      uuid.UUID
	CreatedAt     time.Time
	SnapshotPath  string
	VideoPath     *string
	Status        DetectionStatus
	DetectorBlob  json.RawMessage
	AICostUSD     float64
	PlayedSounds  []string
	VisualHash    *string
	SceneDesc     string
	ErrorDetail   string
	FollowUpEffID *uuid.UUID
}

type FoeKind string

const (
	FoeRats    FoeKind = "RATS"
	FoeCrows   FoeKind = "CROWS"
	FoeCats    FoeKind = "CATS"
	FoeHerons  FoeKind = "HERONS"
	FoePigeons FoeKind = "PIGEONS"
	FoeUnknown FoeKind = "UNKNOWN"
)

// NormalizeFoeKind maps an arbitrary detector string onto the canonical enum.
func NormalizeFoeKind(raw string) FoeKind {
	switch FoeKind(upperASCII(raw)) {
	case FoeRats, FoeCrows, FoeCats, FoeHerons, FoePigeons:
		return FoeKind(upperASCII(raw))
	default:
		return FoeUnknown
	}
}

func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 32
		}
	}
	return string(b)
}

type BBox struct {
	X, Y, W, H int
}

// Foe is a single bounding-box-level pest instance belonging to one Detection.
type Foe struct {
	ID          uuid.UUID
	DetectionID uuid.UUID
	Kind        FoeKind
	Confidence  float64
	BBox        BBox
}

// DeterrentAction is a single attempt to play a sound.
type DeterrentAction struct {
	ID          uuid.UUID
	DetectionID uuid.UUID
	Action      string // "play_sound"
	TriggeredAt time.Time
	Success     bool
	Details     string
}

type EffectivenessResult string

const (
	ResultSuccess EffectivenessResult = "SUCCESS"
	ResultPartial EffectivenessResult = "PARTIAL"
	ResultFailure EffectivenessResult = "FAILURE"
	ResultUnknown EffectivenessResult = "UNKNOWN"
)

type PlaybackMethod string

const (
	MethodCamera PlaybackMethod = "camera"
	MethodLocal  PlaybackMethod = "local"
)

// SoundEffectiveness is one outcome measurement.
type SoundEffectiveness struct {
	ID              uuid.UUID
	DetectionID     uuid.UUID
	Pest            FoeKind
	Sound           string
	Method          PlaybackMethod
	CountBefore     int
	CountAfter      int
	ConfBefore      float64
	ConfAfter       float64
	WaitSeconds     int
	Result          EffectivenessResult
	Score           float64
	FollowUpPath    *string
	CreatedAt       time.Time
}

// SoundStatistics is the aggregate over (pest kind, sound filename).
type SoundStatistics struct {
	Pest             FoeKind
	Sound            string
	TotalUses        int
	Successful       int
	Partial          int
	Failed           int
	SuccessRate      float64
	MeanEffectiveness float64
	FirstUsedAt      time.Time
	LastUsedAt       time.Time
}

// TimeBasedEffectiveness is the aggregate over (pest kind, hour-of-day).
type TimeBasedEffectiveness struct {
	Pest                 FoeKind
	Hour                 int
	TotalUses            int
	SuccessfulDeterrents int
	BestSound            string
	BestSoundSuccessRate float64
}

// Setting is a string-keyed, string-valued configuration record.
type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}
