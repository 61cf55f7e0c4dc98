package weatherlink

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// Request parameter names understood by the v2 API.
const (
	ParamAPIKey         = "api-key"
	ParamAPISecret      = "api-secret"
	ParamAPISignature   = "api-signature"
	ParamStationID      = "station-id"
	ParamStartTimestamp = "start-timestamp"
	ParamEndTimestamp   = "end-timestamp"
	ParamT              = "t"
)

// Params holds the request parameters of one API call. Every parameter,
// path parameters included, takes part in the signature.
type Params map[string]string

// NewParams returns the parameters shared by every call for a station.
// t is the whole-second request timestamp.
func NewParams(stationID, apiKey string, t int64) Params {
	return Params{
		ParamStationID: stationID,
		ParamAPIKey:    apiKey,
		ParamT:         strconv.FormatInt(t, 10),
	}
}

// WithRange returns a copy of p with a start/end timestamp range.
func (p Params) WithRange(start, end int64) Params {
	out := p.Clone()
	out[ParamStartTimestamp] = strconv.FormatInt(start, 10)
	out[ParamEndTimestamp] = strconv.FormatInt(end, 10)
	return out
}

// Without returns a copy of p without the named keys.
func (p Params) Without(keys ...string) Params {
	out := p.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Clone returns a shallow copy of p.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Canonical returns the text that is signed: every key and its value
// concatenated in ASCII key order, without separators. The secret and any
// existing signature are left out.
func Canonical(p Params) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		if k == ParamAPISecret || k == ParamAPISignature {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(p[k])
	}
	return b.String()
}

// Sign computes the lowercase hex HMAC-SHA256 of Canonical(p) keyed by secret.
func Sign(p Params, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(Canonical(p)))
	return hex.EncodeToString(mac.Sum(nil))
}
