package lake

// Row schemas for the columnar tables of each medallion layer. Timestamps
// travel as RFC3339 strings until the silver layer has normalized them; the
// gold tables carry epoch milliseconds for cheap downstream filtering.

// BronzeWebRow is a flattened raw web event. Malformed raw lines survive as
// rows carrying only RawText and RawKey, so nothing is silently lost before
// refinement.
type BronzeWebRow struct {
	EventID        string `parquet:"event_id"`
	TS             string `parquet:"ts"`
	Type           string `parquet:"type"`
	URL            string `parquet:"url"`
	Referrer       string `parquet:"referrer"`
	UTMSource      string `parquet:"utm_source"`
	UTMMedium      string `parquet:"utm_medium"`
	UTMCampaign    string `parquet:"utm_campaign"`
	UTMContent     string `parquet:"utm_content"`
	UTMTerm        string `parquet:"utm_term"`
	ClientUA       string `parquet:"client_ua"`
	ClientLang     string `parquet:"client_lang"`
	IDsCookie      string `parquet:"ids_cookie"`
	IDsGA          string `parquet:"ids_ga"`
	IDsUID         string `parquet:"ids_uid"`
	IDsEmailSHA    string `parquet:"ids_email_sha256"`
	DeviceOS       string `parquet:"device_os"`
	DeviceBrowser  string `parquet:"device_browser"`
	DeviceDevice   string `parquet:"device_device"`
	PropertiesJSON string `parquet:"properties_json"`
	RawText        string `parquet:"raw_text"`
	RawKey         string `parquet:"raw_key"`
}

// SilverWebRow is a refined web event: timestamp normalized to UTC RFC3339,
// deduplicated by event id, url split into host and path.
type SilverWebRow struct {
	EventID        string `parquet:"event_id"`
	TS             string `parquet:"ts"`
	Type           string `parquet:"type"`
	URL            string `parquet:"url"`
	URLHost        string `parquet:"url_host"`
	URLPath        string `parquet:"url_path"`
	Referrer       string `parquet:"referrer"`
	UTMSource      string `parquet:"utm_source"`
	UTMMedium      string `parquet:"utm_medium"`
	UTMCampaign    string `parquet:"utm_campaign"`
	UTMContent     string `parquet:"utm_content"`
	UTMTerm        string `parquet:"utm_term"`
	ClientUA       string `parquet:"client_ua"`
	ClientLang     string `parquet:"client_lang"`
	IDsCookie      string `parquet:"ids_cookie"`
	IDsGA          string `parquet:"ids_ga"`
	IDsUID         string `parquet:"ids_uid"`
	PropertiesJSON string `parquet:"properties_json"`
}

// MempoolRow is a bronze/silver chain mempool transaction. FeeRateSatVB is
// only populated at the silver layer.
type MempoolRow struct {
	TxID         string  `parquet:"txid"`
	VSize        int64   `parquet:"vsize"`
	Fee          int64   `parquet:"fee"`
	Value        int64   `parquet:"value"`
	FirstSeen    string  `parquet:"first_seen"`
	FetchedAt    string  `parquet:"fetched_at"`
	FeeRateSatVB float64 `parquet:"fee_rate_sat_vb"`
	RawJSON      string  `parquet:"raw_json"`
	RawKey       string  `parquet:"raw_key"`
}

// BlockRow is a bronze/silver chain block summary.
type BlockRow struct {
	Height    int64  `parquet:"height"`
	ID        string `parquet:"id"`
	Timestamp string `parquet:"timestamp"`
	TxCount   int64  `parquet:"tx_count"`
	Size      int64  `parquet:"size"`
	Weight    int64  `parquet:"weight"`
	RawJSON   string `parquet:"raw_json"`
	RawKey    string `parquet:"raw_key"`
}

// SessionRow is one gold session summary.
type SessionRow struct {
	SessionID          string  `parquet:"session_id"`
	UserKey            string  `parquet:"user_key"`
	StartTS            int64   `parquet:"start_ts,timestamp(millisecond)"`
	EndTS              int64   `parquet:"end_ts,timestamp(millisecond)"`
	EventCount         int32   `parquet:"n_events"`
	Channels           string  `parquet:"channels"`
	ConversionCount    int32   `parquet:"conv_count"`
	ConversionValueSum float64 `parquet:"conv_value_sum"`
}

// AttributionRow is one gold (conversion, model, channel) credit row.
type AttributionRow struct {
	ConversionEventID string  `parquet:"conv_event_id"`
	ConversionTS      int64   `parquet:"conv_ts,timestamp(millisecond)"`
	ConversionValue   float64 `parquet:"conv_value"`
	Model             string  `parquet:"model"`
	Channel           string  `parquet:"channel"`
	Credit            float64 `parquet:"credit"`
}
