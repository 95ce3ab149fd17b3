package config

const (
	// MaxSourceURLLength is the maximum length for ingestion source URLs.
	// 2048 tracks the de-facto browser limit.
	MaxSourceURLLength = 2048

	// MaxSectionContentBytes is the maximum size of a single section's
	// content. Matches the request body cap so a section can never exceed
	// what the API will accept in one update.
	MaxSectionContentBytes = 1 << 20

	// MaxSearchQueryLength bounds search input before it reaches the
	// database ILIKE clause.
	MaxSearchQueryLength = 200
)
