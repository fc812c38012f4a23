package domain

// RawEvent is a web interaction event as accepted by the ingest API and
// stored line-delimited in the raw bucket. Nested blocks mirror the tracker
// payload; everything is optional except type and url, which the ingest
// service validates.
type RawEvent struct {
	EventID    string                 `json:"event_id"`
	TS         string                 `json:"ts"`
	Type       string                 `json:"type"`
	URL        string                 `json:"url"`
	Referrer   string                 `json:"referrer"`
	UTM        UTM                    `json:"utm"`
	Client     ClientInfo             `json:"client"`
	IDs        Identifiers            `json:"ids"`
	Device     DeviceInfo             `json:"device"`
	Properties map[string]interface{} `json:"properties"`
}

// UTM carries the campaign tagging fields the channel is derived from.
type UTM struct {
	Source   string `json:"source"`
	Medium   string `json:"medium"`
	Campaign string `json:"campaign"`
	Content  string `json:"content"`
	Term     string `json:"term"`
}

// ClientInfo describes the requesting browser.
type ClientInfo struct {
	IP   string `json:"ip"`
	UA   string `json:"ua"`
	Lang string `json:"lang"`
}

// Identifiers are the user identifiers available for key resolution, in no
// particular order; priority is applied by ResolveUserKey.
type Identifiers struct {
	Cookie      string `json:"cookie"`
	GA          string `json:"ga"`
	UID         string `json:"uid"`
	EmailSHA256 string `json:"email_sha256"`
}

// DeviceInfo is the parsed device triple reported by the tracker.
type DeviceInfo struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}
