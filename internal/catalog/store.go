package catalog

import "context"

// Store records conversion attempts of Level-1 archives and the statistics of
// the bands each successful conversion produced.
type Store interface {
	// InsertConversion saves a conversion attempt together with its band
	// statistics. Both are stored in a single atomic transaction.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - c: Conversion outcome; c.ID is ignored
	//   - bands: Statistics of the product bands, empty for failed conversions
	//
	// Returns:
	//   - id: Unique identifier assigned to the conversion
	//   - error: If storage fails or context is cancelled
	InsertConversion(ctx context.Context, c *Conversion, bands []BandStat) (id string, err error)

	// Conversion retrieves a conversion by its ID.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - id: Unique conversion identifier
	//
	// Returns:
	//   - conversion: Pointer to the conversion
	//   - error: ErrNotFound if there is no such conversion, or if retrieval fails
	Conversion(ctx context.Context, id string) (*Conversion, error)

	// Conversions returns the recorded conversions, most recently finished
	// first, narrowed down by the query options.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - opts: WithStatus, WithSceneID, WithLimit
	//
	// Returns:
	//   - conversions: Slice of pointers to conversions
	//   - error: If retrieval fails or context is cancelled
	Conversions(ctx context.Context, opts ...QueryOption) ([]*Conversion, error)

	// BandStats returns the band statistics of a conversion in band order.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - conversionID: ID of the conversion
	//
	// Returns:
	//   - stats: Band statistics, empty for failed conversions
	//   - error: If retrieval fails or context is cancelled
	BandStats(ctx context.Context, conversionID string) ([]BandStat, error)

	// Close releases all database connections and resources.
	// After Close is called, the store instance cannot be reused.
	// It is safe to call Close multiple times.
	Close() error
}

var _ Store = (*SqliteStore)(nil)
