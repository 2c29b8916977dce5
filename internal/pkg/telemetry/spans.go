package telemetry

// Span names and attribute keys used for instrumentation.
const (
	SpanRoutePlan    = "route.plan"
	SpanGraphBuild   = "route.graph_build"
	SpanNetworkStore = "network.store"

	AttrFromStation = "metro.from_station"
	AttrToStation   = "metro.to_station"
	AttrNetwork     = "metro.network_checksum"
	AttrCacheHit    = "metro.cache_hit"
	AttrFound       = "metro.route_found"
)
