// Package memory sizes the Go runtime memory limit for containerized
// deployments.
//
// Encoder and prober processes run outside the Go heap, so most of a
// container's memory belongs to them. [ConfigureFromEnv] sets GOMEMLIMIT to
// a fraction of the container limit, leaving the remainder for child
// processes.
//
// # Environment Variables
//
//   - GOMEMLIMIT: Standard Go variable. If set, it takes precedence and
//     nothing is changed.
//
//   - MEMORY_LIMIT: Container memory limit in bytes, usually injected with
//     the Kubernetes Downward API.
//
//   - MEMORY_RATIO: Share of MEMORY_LIMIT given to the Go heap, between 0.0
//     and 1.0. Defaults to [DefaultMemoryRatio].
//
// # Kubernetes
//
//	env:
//	  - name: MEMORY_LIMIT
//	    valueFrom:
//	      resourceFieldRef:
//	        resource: limits.memory
package memory
