package extract

import "github.com/law-makers/extract/pkg/models"

// Decoder turns one block of the data file into the records it holds.
// offset is the block's absolute position in the input.
type Decoder interface {
	DecodeBlock(offset int64, block []byte, layout models.Layout) ([]models.Record, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(offset int64, block []byte, layout models.Layout) ([]models.Record, error)

// DecodeBlock calls f.
func (f DecoderFunc) DecodeBlock(offset int64, block []byte, layout models.Layout) ([]models.Record, error) {
	return f(offset, block, layout)
}

// skipDecoder recognises no on-disk format and yields nothing. It is used
// when the engine is built without a decoder.
type skipDecoder struct{}

func (skipDecoder) DecodeBlock(int64, []byte, models.Layout) ([]models.Record, error) {
	return nil, nil
}
