package segment

import (
	"math"
	"math/rand"
)

// kMeans partitions the rows of data into k clusters using k-means++ seeding
// and Lloyd iterations. The rng seed makes repeated fits identical.
func kMeans(data [][]float64, k int, seed int64, maxIterations int) []int {
	n := len(data)
	rng := rand.New(rand.NewSource(seed))

	centroids := seedCentroids(data, k, rng)
	labels := make([]int, n)

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, point := range data {
			best := nearestCentroid(point, centroids)
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}

		// Recompute centroids; an emptied cluster keeps its previous centroid.
		dims := len(data[0])
		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dims)
		}
		for i, point := range data {
			c := labels[i]
			counts[c]++
			for d, v := range point {
				sums[c][d] += v
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			for d := 0; d < dims; d++ {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}
		}

		if !changed {
			break
		}
	}

	return labels
}

// seedCentroids implements k-means++ initialization.
func seedCentroids(data [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(data)
	centroids := make([][]float64, 0, k)

	first := rng.Intn(n)
	centroids = append(centroids, append([]float64(nil), data[first]...))

	distances := make([]float64, n)
	for len(centroids) < k {
		total := 0.0
		for i, point := range data {
			d := math.Inf(1)
			for _, c := range centroids {
				if dist := squaredDistance(point, c); dist < d {
					d = dist
				}
			}
			distances[i] = d
			total += d
		}

		if total == 0 {
			// All remaining points coincide with a centroid; duplicate one.
			centroids = append(centroids, append([]float64(nil), data[rng.Intn(n)]...))
			continue
		}

		target := rng.Float64() * total
		cumulative := 0.0
		chosen := n - 1
		for i, d := range distances {
			cumulative += d
			if cumulative >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, append([]float64(nil), data[chosen]...))
	}

	return centroids
}

func nearestCentroid(point []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := squaredDistance(point, centroid); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// silhouetteScore computes the mean silhouette coefficient over at most
// sampleCap rows (seeded subsample). Returns NaN when the sample does not
// span at least two clusters.
func silhouetteScore(data [][]float64, labels []int, sampleCap int, seed int64) float64 {
	n := len(data)
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if sampleCap > 0 && n > sampleCap {
		rng := rand.New(rand.NewSource(seed))
		perm := rng.Perm(n)[:sampleCap]
		indices = perm
	}

	present := make(map[int]bool)
	for _, i := range indices {
		present[labels[i]] = true
	}
	if len(present) < 2 {
		return math.NaN()
	}

	total := 0.0
	counted := 0
	for _, i := range indices {
		a, b := 0.0, math.Inf(1)
		sameCount := 0
		otherSums := make(map[int]float64)
		otherCounts := make(map[int]int)

		for _, j := range indices {
			if i == j {
				continue
			}
			d := math.Sqrt(squaredDistance(data[i], data[j]))
			if labels[j] == labels[i] {
				a += d
				sameCount++
			} else {
				otherSums[labels[j]] += d
				otherCounts[labels[j]]++
			}
		}

		if sameCount == 0 {
			// Singleton cluster contributes zero by convention.
			counted++
			continue
		}
		a /= float64(sameCount)

		for label, sum := range otherSums {
			if mean := sum / float64(otherCounts[label]); mean < b {
				b = mean
			}
		}

		denom := math.Max(a, b)
		if denom > 0 {
			total += (b - a) / denom
		}
		counted++
	}

	if counted == 0 {
		return math.NaN()
	}
	return total / float64(counted)
}
