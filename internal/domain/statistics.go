package domain

// CacheStats - counters exposed by one tile-cache instance.
type CacheStats struct {
	Kind        string  `json:"kind"`
	L1Hits      int64   `json:"l1Hits"`
	L2Hits      int64   `json:"l2Hits"`
	Misses      int64   `json:"misses"`
	InFlight    int64   `json:"inFlight"`
	Entries     int     `json:"entries"`
	AvgL1HitMs  float64 `json:"avgL1HitMs"`
	AvgL2HitMs  float64 `json:"avgL2HitMs"`
	AvgBuildMs  float64 `json:"avgBuildMs"`
	BuildErrors int64   `json:"buildErrors"`
}

// POIStoreStats - counters exposed by the POI store adapter.
type POIStoreStats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Coalesced   int64 `json:"coalesced"`
	Entries     int   `json:"entries"`
	POIsCached  int   `json:"poisCached"`
	StoreErrors int64 `json:"storeErrors"`
}

// Statistics - aggregate service metrics for the stats endpoint.
type Statistics struct {
	HeatmapCache  CacheStats    `json:"heatmapCache"`
	PropertyCache CacheStats    `json:"propertyCache"`
	POIStore      POIStoreStats `json:"poiStore"`
}
