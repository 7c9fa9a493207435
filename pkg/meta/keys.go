package meta

import "strings"

// Separator joins a private key to its value in text headers.
const Separator = ":="

// Prefix namespaces instrument keys.
const Prefix = "Mims_"

// NrrdPrefix namespaces the generic container fields (sizes, type, ...).
const NrrdPrefix = "nrrd."

const (
	KeyMassNumbers          = "Mims_mass_numbers"
	KeyMassSymbols          = "Mims_mass_symbols"
	KeyDate                 = "Mims_date"
	KeyHour                 = "Mims_hour"
	KeyDuration             = "Mims_duration"
	KeyDwellTime            = "Mims_dwell_time"
	KeyPosition             = "Mims_position"
	KeyZPosition            = "Mims_z_position"
	KeySampleName           = "Mims_sample_name"
	KeyUserName             = "Mims_user_name"
	KeyTilePositions        = "Mims_tile_positions"
	KeyRaster               = "Mims_raster"
	KeyBField               = "Mims_BField"
	KeyComment              = "Mims_pszComment"
	KeyPrimCurrentT0        = "Mims_PrimCurrentT0"
	KeyPrimCurrentTEnd      = "Mims_PrimCurrentTEnd"
	KeyESPos                = "Mims_ESPos"
	KeyASPos                = "Mims_ASPos"
	KeyD1Pos                = "Mims_D1Pos"
	KeyRadius               = "Mims_Radius"
	KeyCountTime            = "Mims_count_time"
	KeyPixelWidth           = "Mims_pixel_width"
	KeyPixelHeight          = "Mims_pixel_height"
	KeyDTCorrectionApplied  = "Mims_dt_correction_applied"
	KeyPrototype            = "Mims_prototype"
	KeyQSACorrectionApplied = "Mims_QSA_correction_applied"
	KeyQSAFCObjective       = "Mims_QSA_FC_Obj"
	KeyQSABetas             = "Mims_QSA_betas"
	KeyNotes                = "Mims_notes"
)

var knownKeys = []string{
	KeyMassNumbers, KeyMassSymbols, KeyDate, KeyHour, KeyDuration, KeyDwellTime,
	KeyPosition, KeyZPosition, KeySampleName, KeyUserName, KeyTilePositions,
	KeyRaster, KeyBField, KeyComment, KeyPrimCurrentT0, KeyPrimCurrentTEnd,
	KeyESPos, KeyASPos, KeyD1Pos, KeyRadius, KeyCountTime, KeyPixelWidth,
	KeyPixelHeight, KeyDTCorrectionApplied, KeyPrototype, KeyQSACorrectionApplied,
	KeyQSAFCObjective, KeyQSABetas, KeyNotes,
}

var canonical = func() map[string]string {
	m := make(map[string]string, len(knownKeys))
	for _, k := range knownKeys {
		m[strings.ToLower(k)] = k
	}
	return m
}()

// CanonicalKey maps an instrument key in any letter case to its canonical
// spelling. Unknown keys are returned unchanged with ok=false.
func CanonicalKey(key string) (string, bool) {
	if k, ok := canonical[strings.ToLower(key)]; ok {
		return k, true
	}
	return key, false
}
