// Package upload provides a chunked, concurrent upload pipeline for
// batches of base64-encoded captures. It decodes data-URL payloads,
// negotiates multipart sessions with a coordinator, streams parts
// directly to storage through short-lived signed URLs, and finalizes or
// aborts each session.
//
// Part transmission is resumable at part granularity: every attempt of
// every part requests a fresh signed URL, so a stalled or expired URL
// never strands the session. A failed part leaves the session open for
// the caller to retry later; only a failed finalize tears the session
// down.
//
// Key features:
//   - Batch uploads with bounded concurrency and input-order results
//   - Per-part retry with deterministic exponential backoff
//   - Aggregate progress callbacks (bytes, percent, file counts)
//   - Pluggable coordinator backends (REST service or direct S3)
//   - Optional bandwidth throttling across all concurrent parts
//
// Example usage:
//
//	client, err := upload.New(
//	    upload.WithBaseURL("https://coordinator.example.com"),
//	    upload.WithCredentials(upload.NewStaticTokenCredentials(token)),
//	)
//	if err != nil {
//	    return err
//	}
//
//	outcomes, err := client.UploadAll(ctx, encodedPages,
//	    upload.WithProgress(func(p uploadtypes.BatchProgress) {
//	        fmt.Printf("\r%d%%", p.Percent)
//	    }),
//	)
//	if err != nil {
//	    return err
//	}
package upload
