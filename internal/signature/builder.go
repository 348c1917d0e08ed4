package signature

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ayusman/mudra/internal/embedding"
	"github.com/ayusman/mudra/internal/landmark"
)

// Builder defaults, tuned on the reference recordings.
const (
	DefaultMinPoseQuality        = 0.8
	DefaultMinHandQuality        = 0.2
	DefaultOutlierThreshold      = 3.0
	DefaultMinInstanceSimilarity = 0.5

	// madScale rescales median absolute deviation so the modified
	// z-score is comparable to a standard z-score.
	madScale = 0.6745

	// minTrimFrames is the smallest frame count worth running outlier
	// trimming on.
	minTrimFrames = 5

	// madEpsilon treats near-identical frames as having no spread.
	madEpsilon = 1e-6

	// unitEpsilon guards unit-normalization of degenerate embeddings.
	unitEpsilon = 1e-8
)

// ErrNoUsableInstances is returned when every recording of a concept
// fails the quality gates.
var ErrNoUsableInstances = errors.New("no usable instances")

// Builder turns signature recordings into reference embeddings using
// the same filter and normalizer as the live pipeline, so stored and
// live embeddings share one space.
type Builder struct {
	// MinPoseQuality is the minimum fraction of frames with a visible
	// pose for an instance to count.
	MinPoseQuality float64

	// MinHandQuality is the minimum fraction of frames with at least
	// one visible hand.
	MinHandQuality float64

	// OutlierThreshold is the modified z-score above which a frame is
	// trimmed as an outlier within its instance.
	OutlierThreshold float64

	// MinInstanceSimilarity is the minimum cosine similarity of an
	// instance embedding to the instance mean; recordings below it are
	// excluded as likely mislabeled.
	MinInstanceSimilarity float64

	filter *landmark.Filter
}

// NewBuilder creates a builder with default gates. The visibility
// threshold is the per-point confidence cutoff shared with the live
// pipeline.
func NewBuilder(visibility float64) *Builder {
	return &Builder{
		MinPoseQuality:        DefaultMinPoseQuality,
		MinHandQuality:        DefaultMinHandQuality,
		OutlierThreshold:      DefaultOutlierThreshold,
		MinInstanceSimilarity: DefaultMinInstanceSimilarity,
		filter:                landmark.NewFilter(visibility),
	}
}

// InstanceReport describes what happened to one recording during a
// build.
type InstanceReport struct {
	Gloss         string
	PoseQuality   float64
	HandQuality   float64
	Skipped       bool
	SkipReason    string
	FramesUsed    int
	FramesTrimmed int
}

// BuildReport summarizes a reference build across recordings.
type BuildReport struct {
	Instances         []InstanceReport
	Used              int
	SkippedQuality    int
	SkippedSimilarity int
}

// InstanceEmbedding computes one recording's embedding: the masked
// average over its usable, outlier-trimmed frames. A nil vector with
// Skipped set means the recording failed a quality gate; that is not
// an error.
func (b *Builder) InstanceEmbedding(f *File) (embedding.Vector, InstanceReport, error) {
	report := InstanceReport{Gloss: f.Gloss}

	frames, err := f.LandmarkFrames()
	if err != nil {
		return nil, report, err
	}
	if len(frames) == 0 {
		report.Skipped = true
		report.SkipReason = "no frames"
		return nil, report, nil
	}

	var poseGood, handGood int
	var kept []*landmark.Frame
	for _, frame := range frames {
		filtered, _ := b.filter.Apply(frame)
		poseVisible := anyVisible(filtered, landmark.GroupPose)
		handVisible := anyVisible(filtered, landmark.GroupLeftHand) ||
			anyVisible(filtered, landmark.GroupRightHand)
		if poseVisible {
			poseGood++
		}
		if handVisible {
			handGood++
		}

		// A frame without a tracked body contributes nothing.
		if !poseVisible {
			continue
		}
		normalized, err := filtered.Normalize()
		if err != nil {
			continue
		}
		kept = append(kept, normalized)
	}

	total := float64(len(frames))
	report.PoseQuality = float64(poseGood) / total
	report.HandQuality = float64(handGood) / total

	if report.PoseQuality < b.MinPoseQuality || report.HandQuality < b.MinHandQuality {
		report.Skipped = true
		report.SkipReason = fmt.Sprintf("quality below threshold (pose %.0f%%, hands %.0f%%)",
			100*report.PoseQuality, 100*report.HandQuality)
		return nil, report, nil
	}
	if len(kept) == 0 {
		report.Skipped = true
		report.SkipReason = "no usable frames"
		return nil, report, nil
	}

	survivors := b.trimOutlierFrames(kept)
	report.FramesTrimmed = len(kept) - len(survivors)
	report.FramesUsed = len(survivors)

	vec, _ := embedding.MaskedMean(survivors)
	return vec, report, nil
}

// BuildReference aggregates recordings of one concept into a single
// reference embedding.
func (b *Builder) BuildReference(files []*File) (embedding.Vector, BuildReport, error) {
	var report BuildReport
	var vectors []embedding.Vector
	var vectorIdx []int

	for _, f := range files {
		vec, inst, err := b.InstanceEmbedding(f)
		if err != nil {
			return nil, report, fmt.Errorf("instance %s: %w", f.Gloss, err)
		}
		report.Instances = append(report.Instances, inst)
		if inst.Skipped {
			report.SkippedQuality++
			continue
		}
		vectors = append(vectors, vec)
		vectorIdx = append(vectorIdx, len(report.Instances)-1)
	}

	if len(vectors) == 0 {
		return nil, report, ErrNoUsableInstances
	}
	if len(vectors) == 1 {
		report.Used = 1
		return vectors[0], report, nil
	}

	// Recordings far from the instance mean are likely mislabeled or
	// captured a different sign. When every recording fails the gate
	// the set is kept whole rather than emptied.
	center := meanUnit(vectors)
	sims := make([]float64, len(vectors))
	anyPass := false
	for i, v := range vectors {
		sim, err := embedding.Cosine(v, center)
		if err != nil {
			return nil, report, err
		}
		sims[i] = sim
		if sim >= b.MinInstanceSimilarity {
			anyPass = true
		}
	}

	kept := vectors
	if anyPass {
		var filtered []embedding.Vector
		for i, v := range vectors {
			if sims[i] >= b.MinInstanceSimilarity {
				filtered = append(filtered, v)
				continue
			}
			inst := &report.Instances[vectorIdx[i]]
			inst.Skipped = true
			inst.SkipReason = fmt.Sprintf("similarity %.3f to the instance mean", sims[i])
			report.SkippedSimilarity++
		}
		kept = filtered
	}

	report.Used = len(kept)
	return meanVectors(kept), report, nil
}

// trimOutlierFrames drops frames whose distance to the per-position
// median frame is a modified-z outlier. Small or near-identical frame
// sets are returned untouched, and trimming never empties the set.
func (b *Builder) trimOutlierFrames(frames []*landmark.Frame) []*landmark.Frame {
	if len(frames) < minTrimFrames {
		return frames
	}

	vectors := make([]embedding.Vector, len(frames))
	for i, f := range frames {
		vectors[i] = flattenZero(f)
	}
	center := medianVector(vectors)

	distances := make([]float64, len(vectors))
	for i, v := range vectors {
		distances[i] = euclidean(v, center)
	}
	medDist := median(distances)

	spread := make([]float64, len(distances))
	for i, d := range distances {
		spread[i] = math.Abs(d - medDist)
	}
	mad := median(spread)
	if mad < madEpsilon {
		return frames
	}

	var kept []*landmark.Frame
	for i, d := range distances {
		z := madScale * (d - medDist) / mad
		if math.Abs(z) < b.OutlierThreshold {
			kept = append(kept, frames[i])
		}
	}
	if len(kept) == 0 {
		return frames
	}
	return kept
}

func anyVisible(f *landmark.Frame, group string) bool {
	for _, p := range f.Group(group) {
		if !p.Missing {
			return true
		}
	}
	return false
}

// flattenZero lays a frame out as one flat vector with missing points
// contributing zeros. Used only for outlier distances; embedding
// aggregation masks missing points instead.
func flattenZero(f *landmark.Frame) embedding.Vector {
	vec := make(embedding.Vector, landmark.Dim)
	for i, p := range f.Points() {
		if p.Missing {
			continue
		}
		vec[landmark.NumAxes*i] = p.X
		vec[landmark.NumAxes*i+1] = p.Y
		vec[landmark.NumAxes*i+2] = p.Z
	}
	return vec
}

// median returns the middle value of xs, averaging the two middle
// values for even counts. xs is left unmodified.
func median(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func medianVector(vectors []embedding.Vector) embedding.Vector {
	center := make(embedding.Vector, len(vectors[0]))
	column := make([]float64, len(vectors))
	for i := range center {
		for j, v := range vectors {
			column[j] = v[i]
		}
		center[i] = median(column)
	}
	return center
}

func euclidean(a, b embedding.Vector) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// meanUnit averages the unit-normalized vectors; degenerate vectors
// are taken as-is.
func meanUnit(vectors []embedding.Vector) embedding.Vector {
	mean := make(embedding.Vector, len(vectors[0]))
	for _, v := range vectors {
		n := vectorNorm(v)
		if n < unitEpsilon {
			n = 1
		}
		for i, x := range v {
			mean[i] += x / n
		}
	}
	for i := range mean {
		mean[i] /= float64(len(vectors))
	}
	return mean
}

func meanVectors(vectors []embedding.Vector) embedding.Vector {
	mean := make(embedding.Vector, len(vectors[0]))
	for _, v := range vectors {
		for i, x := range v {
			mean[i] += x
		}
	}
	for i := range mean {
		mean[i] /= float64(len(vectors))
	}
	return mean
}

func vectorNorm(v embedding.Vector) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
