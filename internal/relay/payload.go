package relay

import (
	"encoding/json"
	"fmt"
	"time"

	"sms-connector/internal/settings"
)

// PayloadShape selects the wire contract of the deployed relay script.
type PayloadShape string

const (
	// ShapeDevice is the device-centric contract keyed by device id.
	ShapeDevice PayloadShape = "device"
	// ShapeSession is the session-centric contract carrying a local timestamp.
	ShapeSession PayloadShape = "session"
)

// TimestampLayout is the relay's "YYYY-MM-DD HH:MM:SS" format, local time.
const TimestampLayout = "2006-01-02 15:04:05"

func ParseShape(s string) (PayloadShape, error) {
	switch PayloadShape(s) {
	case ShapeDevice, ShapeSession:
		return PayloadShape(s), nil
	default:
		return "", fmt.Errorf("unknown relay payload shape %q", s)
	}
}

type devicePayload struct {
	LicenseKey   string `json:"license_key"`
	DeviceId     string `json:"device_id"`
	SmsContent   string `json:"sms_content"`
	SenderNumber string `json:"sender_number"`
	TargetEmail  string `json:"target_email"`
}

type sessionPayload struct {
	LicenseKey  string `json:"license_key"`
	TargetEmail string `json:"target_email"`
	SmsSender   string `json:"sms_sender"`
	SmsBody     string `json:"sms_body"`
	Timestamp   string `json:"timestamp"`
}

// Payload is the immutable request sent to the relay for one message.
type Payload struct {
	shape       PayloadShape
	licenseKey  string
	deviceId    string
	sender      string
	body        string
	targetEmail string
	timestamp   time.Time
}

// NewPayload builds the request for one message. The license key is
// normalized; sender, body and email are kept verbatim.
func NewPayload(shape PayloadShape, cfg settings.Configuration, deviceId, sender, body string, receivedAt time.Time) Payload {
	return Payload{
		shape:       shape,
		licenseKey:  cfg.NormalizedLicenseKey(),
		deviceId:    deviceId,
		sender:      sender,
		body:        body,
		targetEmail: cfg.TargetEmail,
		timestamp:   receivedAt,
	}
}

func (p Payload) Shape() PayloadShape { return p.shape }
func (p Payload) LicenseKey() string  { return p.licenseKey }
func (p Payload) DeviceId() string    { return p.deviceId }
func (p Payload) Sender() string      { return p.sender }
func (p Payload) Body() string        { return p.body }
func (p Payload) TargetEmail() string { return p.targetEmail }
func (p Payload) Timestamp() string   { return p.timestamp.Local().Format(TimestampLayout) }

func (p Payload) MarshalJSON() ([]byte, error) {
	switch p.shape {
	case ShapeDevice:
		return json.Marshal(devicePayload{
			LicenseKey:   p.licenseKey,
			DeviceId:     p.deviceId,
			SmsContent:   p.body,
			SenderNumber: p.sender,
			TargetEmail:  p.targetEmail,
		})
	case ShapeSession:
		return json.Marshal(sessionPayload{
			LicenseKey:  p.licenseKey,
			TargetEmail: p.targetEmail,
			SmsSender:   p.sender,
			SmsBody:     p.body,
			Timestamp:   p.Timestamp(),
		})
	default:
		return nil, fmt.Errorf("unknown relay payload shape %q", p.shape)
	}
}
