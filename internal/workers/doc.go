/*
Package workers sizes and runs small bounded worker pools in containerized
environments.

# Overview

Thumbnail extraction launches one encoder process per capture timestamp.
Launching them all at once on a CPU-limited container thrashes the host, so
captures run through Each with a pool sized by ForIO.

runtime.NumCPU() reports host CPUs and ignores cgroup limits, while
runtime.GOMAXPROCS(0) respects them (Go 1.19+). Count uses the latter:

	// Kubernetes pod limited to 2 CPUs on a 64-core node
	workers.ForCPU(8) // 2
	workers.ForIO(8)  // 4

# Environment Variable Override

CAPTURE_WORKERS pins the count regardless of CPU limits (still capped by
the limit argument):

	env:
	- name: CAPTURE_WORKERS
	  value: "2"

# Running Work

	results := make([]string, len(timestamps))
	workers.Each(ctx, len(timestamps), workers.ForIO(4), func(ctx context.Context, i int) {
	    results[i] = capture(ctx, timestamps[i])
	})

Each writes nothing itself; callers index into a pre-sized slice so the
output order matches the input order regardless of completion order.
*/
package workers
