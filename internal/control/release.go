package control

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
	"github.com/ZanzyTHEbar/errbuilder-go"
)

// ReleaseEntry is one row of a Release manifest's checksum table: a
// per-file hash, size, and the relative path under the distribution
// root it describes (e.g. "main/binary-arm/Packages").
type ReleaseEntry struct {
	Hash string
	Size int64
	Path string
}

// Release is the parsed form of a distribution's top-level Release
// manifest.
type Release struct {
	Origin       string
	Suite        string
	Codename     string
	Components   []string
	Architectures []string
	SHA256       map[string]ReleaseEntry
}

// ParseRelease parses a single Release stanza into its typed fields.
// Unknown fields are ignored; this engine only needs enough of the
// manifest to locate and verify per-component Packages files.
func ParseRelease(s *Stanza) Release {
	rel := Release{
		Origin:   s.Get("Origin"),
		Suite:    s.Get("Suite"),
		Codename: s.Get("Codename"),
		SHA256:   map[string]ReleaseEntry{},
	}
	if v := s.Get("Components"); v != "" {
		rel.Components = strings.Fields(v)
	}
	if v := s.Get("Architectures"); v != "" {
		rel.Architectures = strings.Fields(v)
	}
	for _, line := range strings.Split(s.Get("SHA256"), "\n") {
		fields := strings.Fields(line)
		if len(fields) != 3 {
			continue
		}
		size, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}
		rel.SHA256[fields[2]] = ReleaseEntry{Hash: fields[0], Size: size, Path: fields[2]}
	}
	return rel
}

// VerifyClearsigned checks an InRelease-style clearsigned document
// against keyring, returning the decoded payload bytes (suitable for
// handing to ParseRelease via NewReader) and the signing entity. A nil
// keyring disables signature checking entirely, returning the payload
// unverified.
func VerifyClearsigned(data []byte, keyring openpgp.EntityList) ([]byte, *openpgp.Entity, error) {
	block, _ := clearsign.Decode(data)
	if block == nil {
		return nil, nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("not a clearsigned document")
	}
	if keyring == nil {
		return block.Plaintext, nil, nil
	}
	signer, err := openpgp.CheckDetachedSignature(keyring, bytes.NewReader(block.Bytes), block.ArmoredSignature.Body, nil)
	if err != nil {
		return nil, nil, errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg("release signature verification failed").
			WithCause(err)
	}
	return block.Plaintext, signer, nil
}

// VerifyDetached checks a Release file against a detached Release.gpg
// signature using keyring. A nil keyring disables checking.
func VerifyDetached(data, signature []byte, keyring openpgp.EntityList) (*openpgp.Entity, error) {
	if keyring == nil {
		return nil, nil
	}
	signer, err := openpgp.CheckDetachedSignature(keyring, bytes.NewReader(data), bytes.NewReader(signature), nil)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg("detached signature verification failed").
			WithCause(err)
	}
	return signer, nil
}
