package analyze

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/getsentry/raven-go"
	log "github.com/sirupsen/logrus"

	"github.com/SebastianChristoph/brickonizer/datastructures"
	"github.com/SebastianChristoph/brickonizer/recognize"
)

// Recognizer is the external part recognition call, one crop in, ranked
// candidates out.
type Recognizer interface {
	Recognize(ctx context.Context, crop []byte) (recognize.Result, error)
}

// Item is one unit of work: the crop of a single box, in upload/draw order.
type Item struct {
	ImageName     string
	Box           datastructures.BoundingBox
	Crop          []byte
	CropErr       error
	QuantityGuess *int
}

// Pipeline turns boxes into PartResults, strictly sequentially, one
// recognizer call per box with a minimum interval between calls. The
// sequential design is deliberate: it respects the external rate limit and
// keeps progress accounting exact.
type Pipeline struct {
	recognizer  Recognizer
	minInterval time.Duration
}

func New(recognizer Recognizer, minInterval time.Duration) *Pipeline {
	return &Pipeline{recognizer: recognizer, minInterval: minInterval}
}

// Run processes all items in order and hands each produced PartResult to
// sink as soon as it exists. The caller must have claimed the analysis slot
// via progress.TryStart. Run checks the cancel flag between calls only;
// results produced before a cancel stay. A failed recognizer call yields an
// unrecognized PartResult and the run continues, a single box never aborts
// the whole run.
func (p *Pipeline) Run(ctx context.Context, items []Item, progress *Progress, sink func(datastructures.PartResult)) datastructures.AnalysisSummary {
	defer progress.finish()

	summary := datastructures.AnalysisSummary{Total: len(items)}
	var lastReturn time.Time

	for _, item := range items {
		if progress.IsCancelled() {
			log.Debug("[Analyze] Cancelled, stopping after ", progress.Snapshot().Current, " part(s)")
			break
		}

		//wait since the previous call *returned*, not since it started
		if !lastReturn.IsZero() {
			if wait := p.minInterval - time.Since(lastReturn); wait > 0 {
				time.Sleep(wait)
			}
		}

		part := p.analyzeOne(ctx, item)
		lastReturn = time.Now()

		if part.Recognized {
			summary.Recognized++
		} else {
			summary.Failed++
		}
		sink(part)
		progress.Advance()
	}

	log.Debug("[Analyze] Done: ", summary.Recognized, "/", summary.Total, " recognized")
	return summary
}

func (p *Pipeline) analyzeOne(ctx context.Context, item Item) datastructures.PartResult {
	part := datastructures.PartResult{
		ImageName:     item.ImageName,
		BBox:          item.Box,
		QuantityGuess: item.QuantityGuess,
	}
	if item.Crop != nil {
		part.CropImage = base64.StdEncoding.EncodeToString(item.Crop)
	}
	if item.CropErr != nil {
		log.Debug("[Analyze] Couldn't crop box on ", item.ImageName, ": ", item.CropErr.Error())
		part.Error = item.CropErr.Error()
		return part
	}

	result, err := p.recognizer.Recognize(ctx, item.Crop)
	if err != nil {
		//recoverable: record the box as unrecognized and keep going
		log.Debug("[Analyze] Couldn't recognize part on ", item.ImageName, ": ", err.Error())
		raven.CaptureError(err, map[string]string{"image": item.ImageName})
		part.Error = err.Error()
		return part
	}
	if len(result.Items) == 0 {
		return part
	}

	best := result.Items[0]
	part.Recognized = true
	part.PartID = best.ID
	part.PartName = best.Name
	part.Confidence = best.Score
	part.RawCandidates = result.Items
	part.CandidateColors = result.Colors
	return part
}
