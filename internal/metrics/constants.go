package metrics

// Metric names
const (
	MetricNameHTTPRequestsTotal    = "streamlink_http_requests_total"
	MetricNameHTTPRequestDuration  = "streamlink_http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "streamlink_http_requests_in_flight"

	MetricNameOAuthInitiations = "streamlink_oauth_initiations_total"
	MetricNameOAuthCallbacks   = "streamlink_oauth_callbacks_total"

	MetricNameTokenRefreshes       = "streamlink_token_refreshes_total"
	MetricNameTokenRefreshDuration = "streamlink_token_refresh_duration_seconds"

	MetricNameStatesSwept  = "streamlink_oauth_states_swept_total"
	MetricNameJobRuns      = "streamlink_scheduler_job_runs_total"
	MetricNameJobDurations = "streamlink_scheduler_job_duration_seconds"
)

// Metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"

	HelpTextOAuthInitiations = "Authorization flows started, by platform"
	HelpTextOAuthCallbacks   = "Authorization callbacks handled, by platform and outcome"

	HelpTextTokenRefreshes       = "Access token refresh attempts, by platform, trigger and outcome"
	HelpTextTokenRefreshDuration = "Latency of platform refresh calls in seconds"

	HelpTextStatesSwept  = "Expired authorization states removed by the sweeper"
	HelpTextJobRuns      = "Scheduler job executions, by job and outcome"
	HelpTextJobDurations = "Scheduler job latency in seconds"
)

// Label names
const (
	LabelMethod   = "method"
	LabelPath     = "path"
	LabelStatus   = "status"
	LabelPlatform = "platform"
	LabelOutcome  = "outcome"
	LabelTrigger  = "trigger"
	LabelJob      = "job"
)

// Outcome label values
const (
	OutcomeSuccess  = "success"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
	OutcomeReauth   = "reauthorization_required"
	OutcomeDenied   = "denied"
	OutcomeInvalid  = "invalid_state"
	OutcomeExchange = "exchange_failed"
	OutcomeProfile  = "profile_failed"
	OutcomeError    = "error"
)

// Refresh trigger label values
const (
	TriggerOnDemand = "on_demand"
	TriggerForced   = "forced"
	TriggerSweep    = "sweep"
)

// HTTPLatencyBuckets are the histogram buckets for request latency
var HTTPLatencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// PlatformLatencyBuckets are the histogram buckets for outbound platform calls
var PlatformLatencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20}
