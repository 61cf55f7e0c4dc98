package weatherlink

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/i474232898/station-health/internal/health"
)

// Decoder turns response envelopes into partial health records.
//
// Both variants scan every sensor entry and apply each one whose structure
// type matches and whose first data element is present and not null. When
// several entries match, the last one wins. A malformed entry or payload
// stops the scan; whatever was decoded before it is returned.
type Decoder struct {
	logger *zap.Logger

	// OnError, when set, is called once per decode failure.
	OnError func(endpoint string)
}

// NewDecoder creates a Decoder.
func NewDecoder(logger *zap.Logger) *Decoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{logger: logger}
}

// Historic decodes ISS / transmitter health (structure types 11 and 13).
func (d *Decoder) Historic(env *Envelope) health.Record {
	var rec health.Record
	d.scan("historic", env, isHistoricStructure, func(payload json.RawMessage) error {
		var v issHealth
		if err := json.Unmarshal(payload, &v); err != nil {
			return err
		}
		next, err := v.record()
		if err != nil {
			return err
		}
		rec = next
		return nil
	})
	return rec
}

// Current decodes console health (structure type 15).
func (d *Decoder) Current(env *Envelope) health.Record {
	var rec health.Record
	d.scan("current", env, isCurrentStructure, func(payload json.RawMessage) error {
		var v consoleHealth
		if err := json.Unmarshal(payload, &v); err != nil {
			return err
		}
		next, err := v.record()
		if err != nil {
			return err
		}
		rec = next
		return nil
	})
	return rec
}

func isHistoricStructure(t int) bool {
	return t == StructureISSHealthArchive || t == StructureNonISSHealthArchive
}

func isCurrentStructure(t int) bool {
	return t == StructureConsoleHealth
}

// scan walks env.Sensors and calls apply with the first data element of
// every matching entry.
func (d *Decoder) scan(endpoint string, env *Envelope, match func(int) bool, apply func(json.RawMessage) error) {
	log := d.logger.With(zap.String("endpoint", endpoint))

	if env == nil {
		log.Debug("no response to decode")
		return
	}
	if env.Sensors == nil {
		d.fail(endpoint)
		log.Error("no sensors in API response; check API key/secret and station id",
			zap.ByteString("payload", env.Raw()))
		return
	}

	matches := 0
	for i, raw := range env.Sensors {
		var entry sensorEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			d.fail(endpoint)
			log.Error("malformed sensor entry",
				zap.Int("index", i),
				zap.Error(err),
				zap.ByteString("payload", raw))
			return
		}
		if len(entry.Data) == 0 || !match(entry.DataStructureType) {
			continue
		}
		if isNull(entry.Data[0]) {
			log.Warn("sensor entry without data; skipping",
				zap.Int("index", i),
				zap.ByteString("lsid", entry.LSID),
				zap.Int("data_structure_type", entry.DataStructureType))
			continue
		}

		log.Debug("found health data",
			zap.Int("index", i),
			zap.ByteString("lsid", entry.LSID),
			zap.Int("data_structure_type", entry.DataStructureType))

		if err := apply(entry.Data[0]); err != nil {
			d.fail(endpoint)
			log.Error("malformed sensor data",
				zap.Int("index", i),
				zap.Error(fmt.Errorf("data_structure_type %d: %w", entry.DataStructureType, err)),
				zap.ByteString("payload", raw))
			return
		}
		matches++
	}

	switch {
	case matches == 0:
		log.Debug("no matching data structure types in API response")
	case matches > 1:
		log.Info("several sensor entries matched; using the last one", zap.Int("matches", matches))
	}
}

func (d *Decoder) fail(endpoint string) {
	if d.OnError != nil {
		d.OnError(endpoint)
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
