package imageproc

import "github.com/SebastianChristoph/brickonizer/datastructures"

// QuantityDetector guesses the printed quantity ("2x", "3x") next to a part
// from the image region around a box. Implementations are best-effort; ok is
// false when no guess could be made.
type QuantityDetector interface {
	DetectQuantity(img []byte, box datastructures.BoundingBox) (quantity int, ok bool)
}

// NoopQuantityDetector never guesses. The OCR-backed detector lives outside
// this repository.
type NoopQuantityDetector struct{}

func (NoopQuantityDetector) DetectQuantity([]byte, datastructures.BoundingBox) (int, bool) {
	return 0, false
}
