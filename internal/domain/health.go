package domain

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual backend.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
	Error       string `json:"error,omitempty"`
}

// OperationalMetrics is returned by GET /v1/metrics/summary.
type OperationalMetrics struct {
	TotalRequests      int64   `json:"totalRequests"`
	AvgLatencyMs       float64 `json:"avgLatencyMs"`
	StoreErrors        int64   `json:"storeErrors"`
	CacheHitRate       float64 `json:"cacheHitRate"`
	VehiclesSold       int64   `json:"vehiclesSold"`
	VehiclesArchived   int64   `json:"vehiclesArchived"`
	CommissionsCreated int64   `json:"commissionsCreated"`
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
