package config

const (
	DefaultTimeZone       = "America/Chicago"
	DefaultImportSchedule = "*/5 * * * *" // scan the incoming folder every 5 minutes
	DefaultIncomingDir    = "./incoming"
	DefaultProcessedDir   = "./processed"

	// MaxBatchOps bounds the number of queued writes per flush. The POS
	// exports historically went through a document store with a 500-op
	// atomic batch limit, so the bound stays injectable via services.yaml
	// rather than hard-coded at the call sites.
	MaxBatchOps = 500

	// Outlier detection refuses to flag anything below this sample size.
	OutlierMinSample         = 20
	DefaultOutlierMultiplier = 1.5

	DefaultLeaderboardLimit = 10
	DefaultOutlierLimit     = 50
	DefaultLowMarginPer     = 3
	DefaultLowMarginTotal   = 25
	DefaultImportRunsLimit  = 20
)
