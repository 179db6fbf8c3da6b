package adapters

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"opkg/internal/ports"
)

// arMagic is the fixed 8-byte header every "ar" archive starts with.
const arMagic = "!<arch>\n"

// arHeader is the fixed-width 60-byte per-member header.
type arHeader struct {
	name string
	size int64
}

// ArAdapter unpacks the outer ar archive (debian-binary,
// control.tar[.gz], data.tar[.gz]) of a .ipk/.deb-style package. Only
// gzip and uncompressed tar members are supported: no example in this
// retrieval pack carries an xz or zstd decoder dependency, and the
// spec treats the archive reader as an external collaborator (§1),
// so this adapter covers the common case rather than the full format
// matrix.
type ArAdapter struct{}

// NewArAdapter returns an ArAdapter.
func NewArAdapter() ArAdapter { return ArAdapter{} }

// ExtractControl reads the control.tar(.gz) member of archivePath and
// returns its files as a name->contents map (small metadata files:
// control, conffiles, preinst/postinst/prerm/postrm scripts).
func (ArAdapter) ExtractControl(archivePath string) (map[string]string, error) {
	member, err := findMember(archivePath, "control.tar")
	if err != nil {
		return nil, err
	}
	files := map[string]string{}
	tr, closeFn, err := openTar(member)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("malformed control archive: " + archivePath).
				WithCause(err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		var buf strings.Builder
		if _, err := io.Copy(&buf, tr); err != nil {
			return nil, err
		}
		files[cleanMemberName(hdr.Name)] = buf.String()
	}
	return files, nil
}

// ExtractData unpacks the data.tar(.gz) member of archivePath into
// destRoot (when destRoot is "" the files are not written, only
// enumerated — used by the query facade's "files" fallback for a
// not-yet-installed package), returning every path it touched,
// relative to destRoot with a leading "/".
func (ArAdapter) ExtractData(archivePath string, destRoot string) ([]string, error) {
	member, err := findMember(archivePath, "data.tar")
	if err != nil {
		return nil, err
	}
	tr, closeFn, err := openTar(member)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var paths []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("malformed data archive: " + archivePath).
				WithCause(err)
		}
		name := "/" + strings.TrimPrefix(cleanMemberName(hdr.Name), "/")
		if destRoot != "" {
			if err := writeEntry(destRoot, name, hdr, tr); err != nil {
				return nil, err
			}
		}
		if hdr.Typeflag == tar.TypeReg {
			paths = append(paths, name)
		}
	}
	return paths, nil
}

func writeEntry(destRoot, name string, hdr *tar.Header, tr *tar.Reader) error {
	target := filepath.Join(destRoot, name)
	switch hdr.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(target, os.FileMode(hdr.Mode))
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to create directory for " + target).
				WithCause(err)
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(hdr.Mode))
		if err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to create " + target).
				WithCause(err)
		}
		defer out.Close()
		if _, err := io.Copy(out, tr); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to write " + target).
				WithCause(err)
		}
		return nil
	case tar.TypeSymlink:
		os.Remove(target)
		return os.Symlink(hdr.Linkname, target)
	default:
		return nil // device nodes, hardlinks etc. are not expected in these archives
	}
}

func cleanMemberName(name string) string {
	return strings.TrimPrefix(strings.TrimPrefix(name, "./"), "/")
}

// findMember locates the ar member whose name starts with prefix
// (e.g. "control.tar" matches "control.tar.gz") and returns a reader
// scoped to just that member's bytes.
func findMember(archivePath, prefix string) (io.Reader, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("archive not found: " + archivePath).
			WithCause(err)
	}
	r := bufio.NewReader(f)

	magic := make([]byte, len(arMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != arMagic {
		f.Close()
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("not an ar archive: " + archivePath)
	}

	for {
		hdr, err := readArHeader(r)
		if err == io.EOF {
			f.Close()
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("archive has no member matching " + prefix + ": " + archivePath)
		}
		if err != nil {
			f.Close()
			return nil, err
		}
		if strings.HasPrefix(hdr.name, prefix) {
			return &limitedOwnedReader{r: io.LimitReader(r, hdr.size), f: f}, nil
		}
		// Skip this member's data (padded to an even byte boundary).
		skip := hdr.size
		if skip%2 != 0 {
			skip++
		}
		if _, err := io.CopyN(io.Discard, r, skip); err != nil {
			f.Close()
			return nil, err
		}
	}
}

// limitedOwnedReader closes the underlying file once the caller is
// done with the member's bytes.
type limitedOwnedReader struct {
	r io.Reader
	f *os.File
}

func (l *limitedOwnedReader) Read(p []byte) (int, error) { return l.r.Read(p) }
func (l *limitedOwnedReader) Close() error                { return l.f.Close() }

func readArHeader(r *bufio.Reader) (arHeader, error) {
	buf := make([]byte, 60)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.ErrUnexpectedEOF {
			return arHeader{}, io.EOF
		}
		return arHeader{}, err
	}
	name := strings.TrimRight(string(buf[0:16]), " ")
	name = strings.TrimSuffix(name, "/") // GNU ar trailing slash
	sizeField := strings.TrimSpace(string(buf[48:58]))
	size, err := strconv.ParseInt(sizeField, 10, 64)
	if err != nil {
		return arHeader{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("malformed ar member size field").
			WithCause(err)
	}
	return arHeader{name: name, size: size}, nil
}

// openTar wraps member in a tar reader, transparently gunzipping if
// the member carries a gzip magic header.
func openTar(member io.Reader) (*tar.Reader, func() error, error) {
	br := bufio.NewReader(member)
	peek, err := br.Peek(2)
	closeFn := func() error {
		if closer, ok := member.(io.Closer); ok {
			return closer.Close()
		}
		return nil
	}
	if err == nil && len(peek) == 2 && peek[0] == 0x1f && peek[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, closeFn, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("malformed gzip member").
				WithCause(err)
		}
		return tar.NewReader(gz), closeFn, nil
	}
	return tar.NewReader(br), closeFn, nil
}

var _ ports.ArchiveReader = ArAdapter{}
