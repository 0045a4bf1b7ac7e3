package metrics

// AnalysisDurationBuckets defines latency buckets for lint and optimize runs.
var AnalysisDurationBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// IssueCountBuckets defines buckets for issues reported per run.
var IssueCountBuckets = []float64{0, 1, 2, 5, 10, 25, 50, 100}
