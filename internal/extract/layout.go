package extract

import (
	"github.com/law-makers/extract/internal/config"
	"github.com/law-makers/extract/pkg/models"
)

// ResolveLayout applies the command-line overrides on top of the defaults.
func ResolveLayout(o config.Overrides) models.Layout {
	l := models.Layout{
		BlockSize:  config.DefaultBlockSize,
		ExtentSize: config.DefaultExtentSize,
		ModCount:   config.DefaultModCount,
	}
	if o.BlockSize > 0 {
		l.BlockSize = o.BlockSize
	}
	if o.ExtentSize > 0 {
		l.ExtentSize = o.ExtentSize
	}
	if o.ModCount > 0 {
		l.ModCount = o.ModCount
	}
	// An extent is never smaller than one block. Whichever side was
	// overridden wins.
	if l.ExtentSize < l.BlockSize {
		if o.BlockSize == 0 {
			l.BlockSize = l.ExtentSize
		} else {
			l.ExtentSize = l.BlockSize
		}
	}
	return l
}
