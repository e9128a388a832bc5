package plan

import (
	"math"
	"math/rand"
	"sort"
)

// seedOffset keeps the first run of a source away from seed zero.
const seedOffset = 42

// maxBackfillAttempts bounds the advanced tier's rejection sampling so a
// saturated timeline cannot spin forever.
const maxBackfillAttempts = 1000

// GenerateStartPoints produces up to numCuts clip start offsets inside
// [0, totalDuration-cutDuration], varied between runs of the same source.
// Variation is a pure function of processingCount: the generator is seeded
// with processingCount+seedOffset, never wall-clock time, so the same count
// always reproduces the same plan.
//
// Returned points are sorted, at least cutDuration apart, and within
// [0, totalDuration]. Fewer than numCuts points come back when the timeline
// cannot hold that many non-overlapping windows.
func GenerateStartPoints(totalDuration, cutDuration float64, numCuts, processingCount int) []float64 {
	if numCuts < 1 || cutDuration <= 0 {
		return nil
	}

	// Short sources skip variation entirely.
	if totalDuration <= 2*cutDuration {
		if numCuts == 1 {
			return []float64{0}
		}
		return []float64{0, totalDuration - cutDuration}
	}

	available := totalDuration - cutDuration
	if available <= 0 {
		return []float64{0}
	}

	rng := rand.New(rand.NewSource(int64(processingCount) + seedOffset))

	var points []float64
	switch {
	case totalDuration <= 300:
		points = simpleVariation(rng, available, cutDuration, numCuts)
	case totalDuration <= 1800:
		points = mediumVariation(rng, available, cutDuration, numCuts)
	default:
		points = advancedVariation(rng, available, cutDuration, numCuts)
	}

	return spaceOut(points, cutDuration, totalDuration, numCuts)
}

// spaceOut sorts the points and walks forward pushing any point closer than
// cutDuration to its predecessor. The pushed sum can round below the exact
// gap, so the value is nudged up until the re-measured gap holds. Pushed
// points that leave the timeline are dropped rather than clamped, which
// would break the spacing invariant.
func spaceOut(points []float64, cutDuration, totalDuration float64, numCuts int) []float64 {
	sort.Float64s(points)
	for i := 1; i < len(points); i++ {
		if points[i]-points[i-1] < cutDuration {
			points[i] = points[i-1] + cutDuration
			for points[i]-points[i-1] < cutDuration {
				points[i] = math.Nextafter(points[i], math.Inf(1))
			}
		}
	}
	out := points[:0]
	for _, p := range points {
		if p <= totalDuration {
			out = append(out, p)
		}
	}
	if len(out) > numCuts {
		out = out[:numCuts]
	}
	return out
}

// simpleVariation: equal sections, one point per section with a bounded
// random offset. Used for sources up to five minutes.
func simpleVariation(rng *rand.Rand, available, cutDuration float64, numCuts int) []float64 {
	sectionSize := available / float64(numCuts)
	points := make([]float64, 0, numCuts)
	for i := 0; i < numCuts; i++ {
		sectionStart := float64(i) * sectionSize
		sectionEnd := math.Min(float64(i+1)*sectionSize, available)
		point := sectionStart
		if sectionEnd > sectionStart {
			bound := math.Min(sectionEnd-sectionStart, cutDuration*0.5)
			point = sectionStart + uniform(rng, 0, bound)
		}
		points = append(points, math.Max(0, point))
	}
	return points
}

// mediumVariation picks a sub-strategy by clip count for sources up to
// thirty minutes. Large counts draw the strategy itself from the seeded rng
// so repeated runs wander across patterns.
func mediumVariation(rng *rand.Rand, available, cutDuration float64, numCuts int) []float64 {
	strategies := []func(*rand.Rand, float64, float64, int) []float64{
		linearRandomVariation,
		exponentialVariation,
		clusteredVariation,
		spreadOutVariation,
	}
	switch {
	case numCuts <= 3:
		return spreadOutVariation(rng, available, cutDuration, numCuts)
	case numCuts <= 7:
		return linearRandomVariation(rng, available, cutDuration, numCuts)
	default:
		return strategies[rng.Intn(len(strategies))](rng, available, cutDuration, numCuts)
	}
}

// advancedVariation partitions long sources into four zones, spreads cuts
// inside each zone, then backfills any shortfall with random points that
// keep 0.8 cut-lengths of clearance from every accepted point.
func advancedVariation(rng *rand.Rand, available, cutDuration float64, numCuts int) []float64 {
	const zones = 4
	zoneDuration := available / zones

	points := make([]float64, 0, numCuts)
	perZone := numCuts / zones
	if perZone < 1 {
		perZone = 1
	}
	for zone := 0; zone < zones; zone++ {
		zoneStart := float64(zone) * zoneDuration
		zoneEnd := math.Min(float64(zone+1)*zoneDuration, available)
		zoneCuts := numCuts - len(points)
		if zoneCuts > perZone {
			zoneCuts = perZone
		}
		if zoneCuts <= 0 {
			break
		}
		for _, p := range spreadOutVariation(rng, zoneEnd-zoneStart, cutDuration, zoneCuts) {
			points = append(points, zoneStart+p)
		}
	}

	for attempts := 0; len(points) < numCuts && attempts < maxBackfillAttempts; attempts++ {
		candidate := uniform(rng, 0, available)
		tooClose := false
		for _, p := range points {
			if math.Abs(candidate-p) < cutDuration*0.8 {
				tooClose = true
				break
			}
		}
		if !tooClose {
			points = append(points, candidate)
		}
	}
	return points
}

// linearRandomVariation: base points at equal intervals, each jittered by
// up to twenty percent of the interval.
func linearRandomVariation(rng *rand.Rand, available, _ float64, numCuts int) []float64 {
	baseInterval := available / float64(numCuts+1)
	points := make([]float64, 0, numCuts)
	for i := 0; i < numCuts; i++ {
		point := float64(i+1)*baseInterval + uniform(rng, -0.2, 0.2)*baseInterval
		points = append(points, math.Max(0, math.Min(point, available)))
	}
	return points
}

// exponentialVariation places point_i = available * (1 - e^(-2*progress)).
// Gaps shrink as the curve flattens, so later points bunch toward the
// asymptote at about 86% of the span and the tail of the source is skipped.
func exponentialVariation(_ *rand.Rand, available, _ float64, numCuts int) []float64 {
	points := make([]float64, 0, numCuts)
	for i := 0; i < numCuts; i++ {
		progress := 0.0
		if numCuts > 1 {
			progress = float64(i) / float64(numCuts-1)
		}
		point := available * (1 - math.Exp(-2*progress))
		points = append(points, math.Max(0, point))
	}
	return points
}

// clusteredVariation groups points into up to three equal-width clusters
// with small jitter inside each.
func clusteredVariation(rng *rand.Rand, available, cutDuration float64, numCuts int) []float64 {
	numClusters := numCuts / 2
	if numClusters > 3 {
		numClusters = 3
	}
	if numClusters < 1 {
		numClusters = 1
	}
	clusterSize := available / float64(numClusters)
	perCluster := numCuts / numClusters

	points := make([]float64, 0, numCuts)
	for cluster := 0; cluster < numClusters; cluster++ {
		clusterStart := float64(cluster) * clusterSize
		clusterEnd := math.Min(float64(cluster+1)*clusterSize, available)
		clusterCuts := numCuts - len(points)
		if clusterCuts > perCluster {
			clusterCuts = perCluster
		}
		for j := 0; j < clusterCuts; j++ {
			progress := 0.0
			if clusterCuts > 1 {
				progress = float64(j) / float64(clusterCuts-1)
			}
			point := clusterStart + (clusterEnd-clusterStart)*progress
			point += uniform(rng, -cutDuration*0.3, cutDuration*0.3)
			points = append(points, math.Max(clusterStart, math.Min(point, clusterEnd)))
		}
	}
	return points
}

// spreadOutVariation: equal sections, each point at the section midpoint
// plus up to thirty percent of the section size, clamped to the section.
func spreadOutVariation(rng *rand.Rand, available, _ float64, numCuts int) []float64 {
	sectionSize := available / float64(numCuts)
	points := make([]float64, 0, numCuts)
	for i := 0; i < numCuts; i++ {
		sectionStart := float64(i) * sectionSize
		sectionEnd := math.Min(float64(i+1)*sectionSize, available)
		mid := (sectionStart + sectionEnd) / 2
		point := mid + uniform(rng, -sectionSize*0.3, sectionSize*0.3)
		points = append(points, math.Max(sectionStart, math.Min(point, sectionEnd)))
	}
	return points
}

func uniform(rng *rand.Rand, a, b float64) float64 {
	return a + rng.Float64()*(b-a)
}
