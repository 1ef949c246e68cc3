package catalog

import (
	"database/sql"
	"time"
)

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Status is the outcome of a conversion
type Status string

// Conversion is one archive conversion attempt
type Conversion struct {
	ID           string     // Assigned by the store
	Archive      string     // Input archive path
	SceneID      string     // Scene identifier derived from the archive name
	ProductID    *string    // LANDSAT_PRODUCT_ID, nil if the metadata was never read
	Acquired     *time.Time // Acquisition date
	CloudCover   *float64   // Scene cloud cover in percent
	SunElevation *float64   // Sun elevation in degrees
	Output       *string    // Product path, nil on failure
	OutputSize   *int64     // Product size in bytes
	MaskedPixels *int64     // Pixels invalidated by the QA mask
	Status       Status
	Error        *string // Failure reason
	StartedAt    time.Time
	FinishedAt   time.Time
}

// BandStat summarises one calibrated band of a conversion
type BandStat struct {
	ConversionID string
	Index        int      // Landsat band index
	Name         string   // Band name
	Valid        int64    // Pixels holding a calibrated value
	NoData       int64    // Pixels set to nodata
	Min          *float64 // nil when no pixel is valid
	Max          *float64
	Mean         *float64
}

type conversionRow struct {
	ID           string
	Archive      string
	SceneID      string
	ProductID    sql.NullString
	Acquired     sql.NullTime
	CloudCover   sql.NullFloat64
	SunElevation sql.NullFloat64
	Output       sql.NullString
	OutputSize   sql.NullInt64
	MaskedPixels sql.NullInt64
	Status       string
	Error        sql.NullString
	StartedAt    time.Time
	FinishedAt   time.Time
}

func (r *conversionRow) dest() []any {
	return []any{
		&r.ID,
		&r.Archive,
		&r.SceneID,
		&r.ProductID,
		&r.Acquired,
		&r.CloudCover,
		&r.SunElevation,
		&r.Output,
		&r.OutputSize,
		&r.MaskedPixels,
		&r.Status,
		&r.Error,
		&r.StartedAt,
		&r.FinishedAt,
	}
}

func (r *conversionRow) toConversion() *Conversion {
	return &Conversion{
		ID:           r.ID,
		Archive:      r.Archive,
		SceneID:      r.SceneID,
		ProductID:    fromNull(r.ProductID.String, r.ProductID.Valid),
		Acquired:     fromNull(r.Acquired.Time, r.Acquired.Valid),
		CloudCover:   fromNull(r.CloudCover.Float64, r.CloudCover.Valid),
		SunElevation: fromNull(r.SunElevation.Float64, r.SunElevation.Valid),
		Output:       fromNull(r.Output.String, r.Output.Valid),
		OutputSize:   fromNull(r.OutputSize.Int64, r.OutputSize.Valid),
		MaskedPixels: fromNull(r.MaskedPixels.Int64, r.MaskedPixels.Valid),
		Status:       Status(r.Status),
		Error:        fromNull(r.Error.String, r.Error.Valid),
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
	}
}
