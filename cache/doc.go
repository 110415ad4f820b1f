// Package cache implements the three independent bounded caches described
// in spec §4.4 — document, posting, and query — sharing a global memory
// budget enforced by resource.Controller, with the tiered
// admission/eviction policy and invalidation helpers the index calls on
// every mutation.
package cache
