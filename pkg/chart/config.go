// Package chart builds the chart configurations for a planet table and
// renders them to PNG with gonum/plot. Building is pure; only Renderer
// touches the filesystem.
package chart

import "github.com/David-Botos/exo-habitability/pkg/dataset"

// Kind selects the plot type
type Kind int

const (
	KindScatter Kind = iota
	KindBar
)

// Series is one set of scatter points. Reference series (Earth) are drawn
// larger and in a second colour.
type Series struct {
	Name      string
	Points    []dataset.Pair
	Reference bool
}

// Bar is one labelled bar
type Bar struct {
	Label string
	Value float64
}

// Config describes one output file
type Config struct {
	File   string
	Kind   Kind
	Title  string
	XAxis  string
	YAxis  string
	LogX   bool
	Series []Series
	Bars   []Bar

	// HLine draws a horizontal limit line when set
	HLine *float64
}

// Empty reports whether the chart has nothing to plot besides references
func (c Config) Empty() bool {
	switch c.Kind {
	case KindScatter:
		for _, s := range c.Series {
			if !s.Reference && len(s.Points) > 0 {
				return false
			}
		}
		return true
	case KindBar:
		for _, b := range c.Bars {
			if b.Value != 0 {
				return false
			}
		}
		return true
	}
	return true
}
