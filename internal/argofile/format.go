// Package argofile decodes FloatChat's compact binary interchange format
// for Argo float profiles: a per-file header followed by one fixed-width
// record per profile, each carrying an ordered run of per-level
// sub-records. The record/sub-record, scale-factor, and sentinel-null
// style follows other binary oceanographic decoders in this ecosystem
// (ground truth: GSF-style swath bathymetry decoding), adapted to Argo's
// much simpler single-variable-per-level layout.
//
// Wire format (all multi-byte fields big-endian):
//
//	file      := magic[4] formatVersion[u32] profileCount[u32] profile*
//	profile   := floatIDLen[u32] floatID[floatIDLen] cycleNumber[i32]
//	             latitude[f64] longitude[f64] datetimeUnix[i64]
//	             levelCount[u32] level*
//	level     := pressure[f32] temperature[f32] salinity[f32] qcFlag[u8]
package argofile

import "errors"

// magic identifies a file as FloatChat's Argo binary interchange format.
// A file whose first 4 bytes don't match this is not a scientific file at
// all, not merely one with bad content — that is the one case the parser
// returns a non-nil error for (spec §4.2).
var magic = [4]byte{'A', 'R', 'G', '1'}

// Sentinel fill values. Any level field equal to its sentinel decodes to a
// nil pointer rather than the literal number.
const (
	sentinelPressure    float32 = 9999.99
	sentinelTemperature float32 = 99.999
	sentinelSalinity    float32 = 99.999
	sentinelLatitude    float64 = 99.0
	sentinelLongitude   float64 = 999.0
	sentinelDatetime    int64   = -1
	sentinelQCFlag      uint8   = 0xFF
)

// ErrNotArgoFile is returned only when the input is not structurally a
// FloatChat binary interchange file (empty, truncated header, bad magic).
var ErrNotArgoFile = errors.New("argofile: input is not a recognized Argo binary interchange file")

const (
	headerSize       = 4 + 4 + 4 // magic + format version (u32) + profile count (u32)
	profileFixedSize = 4 + 4 + 8 + 8 + 8 + 4
	levelRecordSize  = 4 + 4 + 4 + 1
)

const formatVersion uint32 = 1
