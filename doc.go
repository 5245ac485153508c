// Package s3fs layers filesystem semantics over S3-compatible object
// stores. It wraps AWS SDK v2 and works against any S3-compatible
// endpoint, MinIO included.
//
// A flat key namespace is presented as a path tree: keys split on "/"
// become directories and files, zero-byte marker objects emulate empty
// directories, and rename is a server-side copy followed by a delete.
// File transfers run in fixed-size chunks with cooperative cancellation
// at chunk boundaries, so an in-flight upload or download stops promptly
// and cleans up after itself. Object lock (retention and legal hold) and
// presigned URLs round out the surface.
//
// Example usage:
//
//	client, err := s3fs.New(
//	    s3fs.WithEndpoint("http://localhost:9000"),
//	    s3fs.WithStaticCredentials(accessKey, secretKey, ""),
//	    s3fs.WithForcePathStyle(true),
//	)
//	if err != nil {
//	    return err
//	}
//
//	root, stats, err := client.LoadTree(ctx, "my-bucket", "", "")
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%d of %d keys\n", stats.Matched, stats.Total)
//
//	job, err := client.StartDownload(ctx, "my-bucket", "videos/demo.mp4", "/tmp/demo.mp4")
//	if err != nil {
//	    return err
//	}
//	// ... later, from another goroutine:
//	job.Cancel()
package s3fs
