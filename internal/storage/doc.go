// Package storage provides durable object storage for published video
// artifacts behind a single Backend interface.
//
// Two implementations exist:
//   - Local: writes objects under an uploads directory served as static
//     files at /uploads/
//   - S3: stores objects in an AWS S3 bucket via aws-sdk-go-v2
//
// The backend is selected once at process startup (S3 when S3_BUCKET is
// configured, local otherwise) and injected into its consumers; there is
// no per-request backend switching.
package storage
