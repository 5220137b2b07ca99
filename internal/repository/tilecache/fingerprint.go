package tilecache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/heatmap-service/internal/domain"
)

// fingerprintVersion is the sanctioned invalidation knob: bumping it
// orphans every cached tile without a purge API.
const fingerprintVersion = "v1"

// HeatmapFingerprint hashes the scoring configuration of a heatmap tile.
// Factors are sorted by id so the fingerprint is invariant under
// permutation of the factor list; disabled and zero-weight factors are
// excluded because they cannot influence scores.
func HeatmapFingerprint(factors []domain.Factor, params domain.ScoringParams, gridSize float64, zoom int) string {
	parts := make([]string, 0, len(factors))
	for _, f := range factors {
		if !f.Contributing() {
			continue
		}
		tags := make([]string, len(f.OSMTags))
		copy(tags, f.OSMTags)
		sort.Strings(tags)
		parts = append(parts, fmt.Sprintf("%s|%d|%g|%s",
			f.ID, f.Weight, f.MaxDistance, strings.Join(tags, "+")))
	}
	sort.Strings(parts)

	var b strings.Builder
	b.WriteString(fingerprintVersion)
	b.WriteString(";factors=")
	b.WriteString(strings.Join(parts, ","))
	fmt.Fprintf(&b, ";curve=%s;sens=%g;lambda=%g;norm=%t;grid=%g;zoom=%d",
		params.DistanceCurve, params.Sensitivity, params.Lambda,
		params.NormalizeToViewport, gridSize, zoom)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:16])
}

// HeatmapFingerprintBytes returns the raw digest for TileResult provenance.
func HeatmapFingerprintBytes(factors []domain.Factor, params domain.ScoringParams, gridSize float64, zoom int) []byte {
	raw, _ := hex.DecodeString(HeatmapFingerprint(factors, params, gridSize, zoom))
	return raw
}

// PropertyFingerprint hashes the listing filter set and data sources.
func PropertyFingerprint(filters domain.PropertyFilters, sources []string) string {
	sorted := make([]string, len(sources))
	copy(sorted, sources)
	sort.Strings(sorted)

	estates := make([]string, len(filters.EstateTypes))
	copy(estates, filters.EstateTypes)
	sort.Strings(estates)

	var b strings.Builder
	b.WriteString(fingerprintVersion)
	fmt.Fprintf(&b, ";tx=%s;estates=%s;price=%g-%g;area=%g-%g;rooms=%d-%d;sources=%s",
		filters.Transaction, strings.Join(estates, ","),
		filters.PriceMin, filters.PriceMax,
		filters.AreaMin, filters.AreaMax,
		filters.RoomsMin, filters.RoomsMax,
		strings.Join(sorted, ","))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:16])
}
