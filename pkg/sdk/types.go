package partnerdex

import "time"

// Kind distinguishes partners from stores.
type Kind string

// Kind constants.
const (
	KindPartner Kind = "partner"
	KindStore   Kind = "store"
)

// Source identifies which collection the directory is served from.
type Source string

// Source constants.
const (
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
	SourceNone     Source = "none"
)

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Lat float64
	Lon float64
}

// Entity is a directory partner or store.
type Entity struct {
	ID            string
	Kind          Kind // empty means partner on write
	Name          string
	Location      string
	Description   string
	Category      string // unknown values are stored as "uncategorized"
	CategoryLabel string // read-only
	Coordinates   *Coordinates
	Distance      *float64 // meters from SearchParams.Near, read-only
}

// SearchParams selects entities from the directory.
// The zero value returns everything.
type SearchParams struct {
	Term     string // case-insensitive substring of name, location or description
	Category string // category value or "all"; unknown values match everything
	Kind     Kind
	Near     *Coordinates // annotates results with distances, never reorders
	Limit    int          // 0 = no limit
}

// SearchResult is a filtered view of one directory snapshot.
type SearchResult struct {
	Items           []Entity
	Total           int // matches before Limit
	Source          Source
	Generation      uint64
	CategoryCoerced bool // an unknown category was widened to "all"
}

// Category is one entry of the closed category catalog.
type Category struct {
	Value string
	Label string
}

// SourceInfo describes the published directory snapshot.
type SourceInfo struct {
	Source     Source
	Generation uint64
	FetchedAt  time.Time
	FetchError string
	Count      int
	Skipped    int // malformed database rows dropped on the last refresh
}
