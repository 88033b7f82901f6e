package argofile

import (
	"bytes"
	"encoding/binary"
)

// EncodeBytes serializes profiles into the wire format Decode reads. It
// exists primarily to build fixtures for tests and is not part of the
// ingestion path (FloatChat only ever decodes files produced upstream).
func EncodeBytes(profiles []DecodedProfile) []byte {
	var buf bytes.Buffer
	buf.Write(magic[:])
	binary.Write(&buf, binary.BigEndian, formatVersion)
	binary.Write(&buf, binary.BigEndian, uint32(len(profiles)))

	for _, p := range profiles {
		idBytes := []byte(p.FloatID)
		binary.Write(&buf, binary.BigEndian, uint32(len(idBytes)))
		buf.Write(idBytes)
		binary.Write(&buf, binary.BigEndian, int32(p.CycleNumber))
		binary.Write(&buf, binary.BigEndian, orSentinelF64(p.Latitude, sentinelLatitude))
		binary.Write(&buf, binary.BigEndian, orSentinelF64(p.Longitude, sentinelLongitude))
		if p.Datetime != nil {
			binary.Write(&buf, binary.BigEndian, p.Datetime.Unix())
		} else {
			binary.Write(&buf, binary.BigEndian, sentinelDatetime)
		}
		binary.Write(&buf, binary.BigEndian, uint32(len(p.Levels)))
		for _, lvl := range p.Levels {
			binary.Write(&buf, binary.BigEndian, orSentinelF32(lvl.Pressure, sentinelPressure))
			binary.Write(&buf, binary.BigEndian, orSentinelF32(lvl.Temperature, sentinelTemperature))
			binary.Write(&buf, binary.BigEndian, orSentinelF32(lvl.Salinity, sentinelSalinity))
			if lvl.QCFlag != nil {
				buf.WriteByte(byte(*lvl.QCFlag))
			} else {
				buf.WriteByte(sentinelQCFlag)
			}
		}
	}
	return buf.Bytes()
}

func orSentinelF64(v *float64, sentinel float64) float64 {
	if v == nil {
		return sentinel
	}
	return *v
}

func orSentinelF32(v *float64, sentinel float32) float32 {
	if v == nil {
		return sentinel
	}
	return float32(*v)
}
