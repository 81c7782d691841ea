package config

import "github.com/law-makers/extract/internal/fatal"

func validate(c *Config) error {
	if c.InputFile == "" {
		return fatal.Validation("You must explicitly specify a path with -f.")
	}
	if c.OutputFile == "" {
		return fatal.Validation("The output file path must not be empty.")
	}
	o := c.Overrides
	if o.ExtentSize != 0 && o.BlockSize != 0 && o.ExtentSize%o.BlockSize != 0 {
		return fatal.Validation("The forced extent size (%d) is not a multiple of the forced block size (%d).",
			o.ExtentSize, o.BlockSize).
			WithDetail("extent_size", o.ExtentSize).
			WithDetail("block_size", o.BlockSize)
	}
	return nil
}
