package source

import (
	"fmt"
	"strings"
)

// Kind classifies a downloadable unit.
type Kind string

const (
	KindTrack Kind = "track"
	KindVideo Kind = "video"
	KindOther Kind = "other"
)

// Quality is an ordinal quality level, 0 (lowest) through 4 (highest). Each
// source maps its own format ladder onto this scale.
type Quality int

const (
	QualityLow      Quality = 0
	QualityHigh     Quality = 1
	QualityLossless Quality = 2
	QualityHiRes    Quality = 3
	QualityMax      Quality = 4
)

// Valid reports whether q is within the supported ordinal range.
func (q Quality) Valid() bool {
	return q >= QualityLow && q <= QualityMax
}

// ParentRef is a weak reference to the collection an item came from, kept for
// ordering and naming. It confers no ownership; the parent may never be
// fetched itself.
type ParentRef struct {
	Kind  Kind
	ID    string
	Title string
}

// ItemDescriptor identifies one downloadable unit.
//
// (Source, ID) uniquely identifies a logical media item; the pipeline never
// fetches the same pair twice concurrently. Position is the item's stable
// index within its parent collection and is what file numbering derives from,
// never completion order.
type ItemDescriptor struct {
	Source       string
	ID           string
	Kind         Kind
	Title        string
	Artist       string
	Album        string
	Extension    string // container the source will stream, e.g. "flac"
	Quality      Quality
	Position     int
	PathTemplate string // overrides the configured library template when set
	Parent       *ParentRef
}

// Key returns the dedup identity for the descriptor.
func (d ItemDescriptor) Key() string {
	return d.Source + ":" + d.ID
}

// Validate reports structural problems that make a descriptor unfetchable.
func (d ItemDescriptor) Validate() error {
	if strings.TrimSpace(d.Source) == "" {
		return fmt.Errorf("descriptor missing source")
	}
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("descriptor missing id")
	}
	if !d.Quality.Valid() {
		return fmt.Errorf("descriptor quality %d out of range", d.Quality)
	}
	return nil
}
