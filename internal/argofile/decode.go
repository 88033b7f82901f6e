package argofile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// Level is one decoded per-level measurement, before it is attached to a
// store.Measurement (argofile has no dependency on internal/store so the
// parser stays independently testable).
type Level struct {
	Pressure    *float64
	Temperature *float64
	Salinity    *float64
	QCFlag      *int16
}

// DecodedProfile is one decoded profile record plus its levels.
type DecodedProfile struct {
	FloatID     string
	CycleNumber int
	Latitude    *float64
	Longitude   *float64
	Datetime    *time.Time
	Levels      []Level
}

// ParseDiagnostics accumulates non-fatal anomalies found while decoding:
// out-of-bounds coordinates, unparseable datetimes, and truncated records.
// The parser never fails the whole file over these — spec §4.2 "the parser
// never returns a non-nil error for content issues."
type ParseDiagnostics struct {
	OutOfBoundsCoordinates int
	TruncatedRecords       int
	BadDatetimes           int
}

// Decode reads a full Argo binary interchange file from r.
func Decode(r io.Reader) ([]DecodedProfile, ParseDiagnostics, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ParseDiagnostics{}, fmt.Errorf("read input: %w", err)
	}
	return DecodeBytes(data)
}

// DecodeBytes is Decode without the io.Reader copy, for callers that
// already hold the whole file in memory (the crawler does, via Tick).
func DecodeBytes(data []byte) ([]DecodedProfile, ParseDiagnostics, error) {
	if len(data) < headerSize {
		return nil, ParseDiagnostics{}, ErrNotArgoFile
	}
	if !bytes.Equal(data[:4], magic[:]) {
		return nil, ParseDiagnostics{}, ErrNotArgoFile
	}
	buf := bytes.NewReader(data[4:])

	var version, profileCount uint32
	if err := binary.Read(buf, binary.BigEndian, &version); err != nil {
		return nil, ParseDiagnostics{}, ErrNotArgoFile
	}
	if err := binary.Read(buf, binary.BigEndian, &profileCount); err != nil {
		return nil, ParseDiagnostics{}, ErrNotArgoFile
	}

	var diag ParseDiagnostics
	profiles := make([]DecodedProfile, 0, profileCount)
	for i := uint32(0); i < profileCount; i++ {
		p, ok := decodeProfile(buf, &diag)
		if !ok {
			diag.TruncatedRecords++
			break
		}
		profiles = append(profiles, p)
	}
	return profiles, diag, nil
}

func decodeProfile(buf *bytes.Reader, diag *ParseDiagnostics) (DecodedProfile, bool) {
	var idLen uint32
	if err := binary.Read(buf, binary.BigEndian, &idLen); err != nil {
		return DecodedProfile{}, false
	}
	idBytes := make([]byte, idLen)
	if _, err := io.ReadFull(buf, idBytes); err != nil {
		return DecodedProfile{}, false
	}

	var cycle int32
	var lat, lon float64
	var datetimeUnix int64
	var levelCount uint32
	for _, field := range []any{&cycle, &lat, &lon, &datetimeUnix, &levelCount} {
		if err := binary.Read(buf, binary.BigEndian, field); err != nil {
			return DecodedProfile{}, false
		}
	}

	p := DecodedProfile{
		FloatID:     string(idBytes),
		CycleNumber: int(cycle),
		Latitude:    nilIfSentinelF64(lat, sentinelLatitude),
		Longitude:   nilIfSentinelF64(lon, sentinelLongitude),
	}
	if p.Latitude != nil && (*p.Latitude < -90 || *p.Latitude > 90) {
		diag.OutOfBoundsCoordinates++
		p.Latitude = nil
	}
	if p.Longitude != nil && (*p.Longitude < -180 || *p.Longitude > 180) {
		diag.OutOfBoundsCoordinates++
		p.Longitude = nil
	}
	if datetimeUnix != sentinelDatetime {
		t := time.Unix(datetimeUnix, 0).UTC()
		if t.Year() < 1990 || t.Year() > 2100 {
			diag.BadDatetimes++
		} else {
			p.Datetime = &t
		}
	}

	p.Levels = make([]Level, 0, levelCount)
	for i := uint32(0); i < levelCount; i++ {
		lvl, ok := decodeLevel(buf)
		if !ok {
			diag.TruncatedRecords++
			break
		}
		p.Levels = append(p.Levels, lvl)
	}
	return p, true
}

func decodeLevel(buf *bytes.Reader) (Level, bool) {
	var pressure, temperature, salinity float32
	var qc uint8
	if err := binary.Read(buf, binary.BigEndian, &pressure); err != nil {
		return Level{}, false
	}
	if err := binary.Read(buf, binary.BigEndian, &temperature); err != nil {
		return Level{}, false
	}
	if err := binary.Read(buf, binary.BigEndian, &salinity); err != nil {
		return Level{}, false
	}
	if err := binary.Read(buf, binary.BigEndian, &qc); err != nil {
		return Level{}, false
	}
	lvl := Level{
		Pressure:    nilIfSentinelF32(pressure, sentinelPressure),
		Temperature: nilIfSentinelF32(temperature, sentinelTemperature),
		Salinity:    nilIfSentinelF32(salinity, sentinelSalinity),
	}
	if qc != sentinelQCFlag {
		v := int16(qc)
		lvl.QCFlag = &v
	}
	return lvl, true
}

func nilIfSentinelF32(v, sentinel float32) *float64 {
	if v == sentinel {
		return nil
	}
	out := float64(v)
	return &out
}

func nilIfSentinelF64(v, sentinel float64) *float64 {
	if v == sentinel {
		return nil
	}
	out := v
	return &out
}
