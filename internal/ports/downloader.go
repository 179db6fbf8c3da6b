package ports

import "context"

// Downloader fetches a URL into a local file, returning the number of
// bytes written. Implementations honor ctx cancellation mid-transfer.
type Downloader interface {
	Download(ctx context.Context, url string, destPath string) (int64, error)
}
