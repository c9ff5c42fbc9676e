// Package storage moves source and output bytes between the encoder's local
// disk and wherever they are kept.
//
// Local serves everything from directories on this node. Minio keeps outputs
// in an S3-compatible bucket: outputs are encoded locally, then relocated,
// which is when a job passes through the uploading state. Inputs given as
// minio:// references are downloaded to a scratch directory first; plain
// paths are always served from the local input root.
package storage
