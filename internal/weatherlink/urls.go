package weatherlink

import (
	"net/url"
	"strings"
)

// DefaultBaseURL is the WeatherLink v2 API root.
const DefaultBaseURL = "https://api.weatherlink.com/v2"

// URLBuilder assembles signed request URLs for the historic and current
// endpoints.
type URLBuilder struct {
	baseURL string
	secret  string
}

// NewURLBuilder creates a URLBuilder. An empty baseURL selects DefaultBaseURL.
func NewURLBuilder(baseURL, secret string) *URLBuilder {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &URLBuilder{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
	}
}

// Historic returns the signed URL of the historic endpoint. p must carry a
// start/end timestamp range.
func (b *URLBuilder) Historic(p Params) string {
	sig := Sign(p, b.secret)
	return b.baseURL + "/historic/" + url.PathEscape(p[ParamStationID]) +
		"?" + ParamAPIKey + "=" + url.QueryEscape(p[ParamAPIKey]) +
		"&" + ParamStartTimestamp + "=" + url.QueryEscape(p[ParamStartTimestamp]) +
		"&" + ParamEndTimestamp + "=" + url.QueryEscape(p[ParamEndTimestamp]) +
		"&" + ParamAPISignature + "=" + sig +
		"&" + ParamT + "=" + url.QueryEscape(p[ParamT])
}

// Current returns the signed URL of the current-conditions endpoint. Any
// timestamp range in p is dropped before signing; p itself is left as is.
func (b *URLBuilder) Current(p Params) string {
	cp := p.Without(ParamStartTimestamp, ParamEndTimestamp)
	sig := Sign(cp, b.secret)
	return b.baseURL + "/current/" + url.PathEscape(cp[ParamStationID]) +
		"?" + ParamAPIKey + "=" + url.QueryEscape(cp[ParamAPIKey]) +
		"&" + ParamAPISignature + "=" + sig +
		"&" + ParamT + "=" + url.QueryEscape(cp[ParamT])
}
