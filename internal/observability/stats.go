package observability

import (
	"sync"
	"sync/atomic"
)

type StatsSnapshot struct {
	UsersResolved      uint64            `json:"users_resolved"`
	QuizSubmissions    uint64            `json:"quiz_submissions"`
	AICalls            uint64            `json:"ai_calls"`
	EnrichmentsQueued  uint64            `json:"enrichments_queued"`
	TrendFetches       uint64            `json:"trend_fetches"`
	TrendCacheHits     uint64            `json:"trend_cache_hits"`
	RoadmapRequests    uint64            `json:"roadmap_requests"`
	ErrorsTotal        uint64            `json:"errors_total"`
	UpstreamSecondsAvg float64           `json:"upstream_seconds_avg"`
	AIProviders        map[string]uint64 `json:"ai_providers,omitempty"`
	ErrorsByType       map[string]uint64 `json:"errors_by_type,omitempty"`
	ErrorsByComponent  map[string]uint64 `json:"errors_by_component,omitempty"`
}

var (
	usersResolved     uint64
	quizSubmissions   uint64
	aiCalls           uint64
	enrichmentsQueued uint64
	trendFetches      uint64
	trendCacheHits    uint64
	roadmapRequests   uint64
	errorsTotal       uint64

	upstreamCount uint64
	upstreamNanos uint64

	statsMu           sync.Mutex
	aiProviders       = map[string]uint64{}
	errorsByType      = map[string]uint64{}
	errorsByComponent = map[string]uint64{}
)

func IncUserResolved() {
	atomic.AddUint64(&usersResolved, 1)
}

func IncQuizSubmission() {
	atomic.AddUint64(&quizSubmissions, 1)
}

func IncAICall(provider string) {
	if provider == "" {
		provider = "unknown"
	}
	atomic.AddUint64(&aiCalls, 1)
	statsMu.Lock()
	aiProviders[provider]++
	statsMu.Unlock()
}

func IncEnrichmentQueued() {
	atomic.AddUint64(&enrichmentsQueued, 1)
}

func IncTrendFetch() {
	atomic.AddUint64(&trendFetches, 1)
}

func IncTrendCacheHit() {
	atomic.AddUint64(&trendCacheHits, 1)
}

func IncRoadmapRequest() {
	atomic.AddUint64(&roadmapRequests, 1)
}

// ObserveUpstreamDuration records one call to the AI or trends service.
func ObserveUpstreamDuration(seconds float64) {
	if seconds <= 0 {
		return
	}
	atomic.AddUint64(&upstreamCount, 1)
	atomic.AddUint64(&upstreamNanos, uint64(seconds*1e9))
}

func IncError(errType, component string) {
	if errType == "" {
		errType = ErrorUnknown
	}
	if component == "" {
		component = "unknown"
	}
	atomic.AddUint64(&errorsTotal, 1)
	statsMu.Lock()
	errorsByType[errType]++
	errorsByComponent[component]++
	statsMu.Unlock()
}

func Snapshot() StatsSnapshot {
	statsMu.Lock()
	providersCopy := copyMap(aiProviders)
	errorsTypeCopy := copyMap(errorsByType)
	errorsComponentCopy := copyMap(errorsByComponent)
	statsMu.Unlock()

	count := atomic.LoadUint64(&upstreamCount)
	avg := 0.0
	if count > 0 {
		avg = float64(atomic.LoadUint64(&upstreamNanos)) / float64(count) / 1e9
	}

	return StatsSnapshot{
		UsersResolved:      atomic.LoadUint64(&usersResolved),
		QuizSubmissions:    atomic.LoadUint64(&quizSubmissions),
		AICalls:            atomic.LoadUint64(&aiCalls),
		EnrichmentsQueued:  atomic.LoadUint64(&enrichmentsQueued),
		TrendFetches:       atomic.LoadUint64(&trendFetches),
		TrendCacheHits:     atomic.LoadUint64(&trendCacheHits),
		RoadmapRequests:    atomic.LoadUint64(&roadmapRequests),
		ErrorsTotal:        atomic.LoadUint64(&errorsTotal),
		UpstreamSecondsAvg: avg,
		AIProviders:        providersCopy,
		ErrorsByType:       errorsTypeCopy,
		ErrorsByComponent:  errorsComponentCopy,
	}
}

func copyMap(src map[string]uint64) map[string]uint64 {
	if len(src) == 0 {
		return map[string]uint64{}
	}
	out := make(map[string]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
