/*
Package ports defines the driven ports (interfaces) of the tool service.

These interfaces decouple tool handlers from external implementations, so the same
handlers run against a real bucket in production and a temporary directory in tests.

# Key Interfaces

  - ObjectStore: durable storage for files produced by tools (S3-compatible bucket or local directory).
  - ContentCache: short-lived cache for expensive lookups such as URL extraction results.
  - DistributedLocker: coordinates replicas that would otherwise repeat the same expensive work.
*/
package ports
