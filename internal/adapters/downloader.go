// Package adapters provides the concrete, ambient implementations of
// the ports the core transaction engine treats as external
// collaborators (spec §1): HTTP/file fetching, maintainer-script
// execution, and ar/tar archive extraction. None of this is part of
// the "hard part" the spec scopes in; it exists so the CLI binary has
// something real to run against.
package adapters

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"opkg/internal/ports"
	"opkg/internal/shared"
)

// HTTPDownloader fetches http(s):// and file:// URLs. FTP is not
// implemented: the original opkg's FTP backend is a thin wrapper
// around a system client, and no example in this retrieval pack
// carries an FTP client dependency to ground one on.
type HTTPDownloader struct {
	Client *http.Client
}

// NewHTTPDownloader returns a downloader whose client routes through
// the process's proxy environment variables (http_proxy, https_proxy,
// no_proxy), set by the caller per spec §4.5 before constructing this.
func NewHTTPDownloader() *HTTPDownloader {
	return &HTTPDownloader{
		Client: &http.Client{
			Timeout: 5 * time.Minute,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
			},
		},
	}
}

// Download fetches rawURL into destPath, returning the number of
// bytes written.
func (d *HTTPDownloader) Download(ctx context.Context, rawURL string, destPath string) (int64, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid URL: " + rawURL).
			WithCause(err)
	}

	if u.Scheme == "" || u.Scheme == "file" {
		return d.downloadFile(u, destPath)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return 0, errbuilder.New().
			WithCode(errbuilder.CodeUnimplemented).
			WithMsg("unsupported URL scheme: " + u.Scheme)
	}
	return d.downloadHTTP(ctx, rawURL, destPath)
}

func (d *HTTPDownloader) downloadHTTP(ctx context.Context, rawURL, destPath string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to build download request").
			WithCause(err)
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return 0, errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("download failed: " + rawURL).
			WithCause(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("download failed").
			WithCause(shared.HTTPStatusError(resp.StatusCode, rawURL))
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return 0, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create destination directory").
			WithCause(err)
	}
	out, err := os.Create(destPath)
	if err != nil {
		return 0, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create destination file: " + destPath).
			WithCause(err)
	}
	defer out.Close()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return n, errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("download interrupted: " + rawURL).
			WithCause(err)
	}
	return n, nil
}

func (d *HTTPDownloader) downloadFile(u *url.URL, destPath string) (int64, error) {
	src := u.Path
	if src == "" {
		src = strings.TrimPrefix(u.Opaque, "//")
	}
	in, err := os.Open(src)
	if err != nil {
		return 0, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("local source file not found: " + src).
			WithCause(err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return 0, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create destination directory").
			WithCause(err)
	}
	out, err := os.Create(destPath)
	if err != nil {
		return 0, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create destination file: " + destPath).
			WithCause(err)
	}
	defer out.Close()

	n, err := io.Copy(out, in)
	if err != nil {
		return n, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to copy local source file").
			WithCause(err)
	}
	return n, nil
}

// ExportProxyEnv sets the proxy environment variables the configured
// downloader (and any maintainer scripts it shells out to) should see,
// per spec §4.5 and §6's consumed-environment list.
func ExportProxyEnv(httpProxy, httpsProxy, ftpProxy, noProxy string) {
	setIfNonEmpty("http_proxy", httpProxy)
	setIfNonEmpty("https_proxy", httpsProxy)
	setIfNonEmpty("ftp_proxy", ftpProxy)
	setIfNonEmpty("no_proxy", noProxy)
}

func setIfNonEmpty(key, value string) {
	if value != "" {
		os.Setenv(key, value)
	}
}

var _ ports.Downloader = (*HTTPDownloader)(nil)
