// Package storage is the blob layer under the object snapshot backend:
// a flat key space with atomic Put, Get and single-level List.
//
// Providers register themselves on import:
//
//   - storage/local: a directory tree, written through temp file + rename
//   - storage/s3: Amazon S3 or an S3-compatible service such as MinIO
//
// Configuration, as read by the opflow binary:
//
//	snapshot:
//	  provider: storage
//	  storage:
//	    provider: s3
//	  s3:
//	    bucket: pipeline-state
//	    region: eu-west-1
//	    storage_class: STANDARD_IA
package storage
