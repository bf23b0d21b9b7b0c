// Package metadata reads the externally generated metadata file and compares
// the checksums it records with the files on disk. Mismatches are advisory
// notices, never errors.
package metadata

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-json"

	"gruncellka/porto/pkg/dataset"
	"gruncellka/porto/pkg/integrity/findings"
)

// FileInfo is one checksummed file entry.
type FileInfo struct {
	Path     string `json:"path"`
	Checksum string `json:"checksum"`
	Size     int64  `json:"size,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Entity groups the data and schema file of one entity kind.
type Entity struct {
	Data   *FileInfo `json:"data"`
	Schema *FileInfo `json:"schema"`
}

// Document is the metadata file. Files listed under the legacy "schemas"
// and "data" sections are merged into Files.
type Document struct {
	Entities map[string]Entity `json:"entities"`
	Schemas  struct {
		Files []FileInfo `json:"files"`
	} `json:"schemas"`
	Data struct {
		Files []FileInfo `json:"files"`
	} `json:"data"`
}

// Files returns every checksummed file, sorted by path.
func (d *Document) Files() []FileInfo {
	var out []FileInfo
	for _, e := range d.Entities {
		if e.Data != nil {
			out = append(out, *e.Data)
		}
		if e.Schema != nil {
			out = append(out, *e.Schema)
		}
	}
	out = append(out, d.Schemas.Files...)
	out = append(out, d.Data.Files...)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Checksum returns the hex SHA-256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Verifier compares recorded checksums against files on disk.
type Verifier struct {
	// Path is the metadata file. Entry paths are relative to its directory.
	Path string
}

// NewVerifier creates a verifier for the metadata file at path.
func NewVerifier(path string) *Verifier {
	return &Verifier{Path: path}
}

// Verify returns one ChecksumMismatch notice per file whose content no
// longer matches the recorded checksum. A missing metadata file yields no
// notices.
func (v *Verifier) Verify(ctx context.Context) *findings.List {
	list := findings.NewList()
	file := filepath.Base(v.Path)

	data, err := dataset.ReadFile(ctx, v.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return list
	}
	if err != nil {
		list.AddNotice(findings.KindChecksumMismatch, file, "", "", fmt.Sprintf("metadata file could not be read: %v", err))
		return list
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		list.AddNotice(findings.KindChecksumMismatch, file, "", "", fmt.Sprintf("metadata file is not valid JSON: %v", err))
		return list
	}

	base := filepath.Dir(v.Path)
	for _, info := range doc.Files() {
		if ctx.Err() != nil {
			break
		}
		if info.Checksum == "" {
			continue
		}

		content, err := os.ReadFile(filepath.Join(base, filepath.FromSlash(info.Path)))
		found := ""
		switch {
		case errors.Is(err, fs.ErrNotExist):
			found = "missing"
		case err != nil:
			found = "unreadable"
		default:
			found = Checksum(content)
		}
		if found == info.Checksum {
			continue
		}

		list.Add(findings.Finding{
			Kind:     findings.KindChecksumMismatch,
			Severity: findings.SeverityNotice,
			File:     file,
			ID:       info.Path,
			Field:    "checksum",
			Expected: info.Checksum,
			Found:    found,
			Message:  fmt.Sprintf("%s does not match its recorded checksum; regenerate the metadata", info.Path),
		})
	}
	return list
}
