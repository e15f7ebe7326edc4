// Copyright 2023 Sneller, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

package workspace

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/flate"

	"github.com/omenSi/tablite/errs"
)

// ManifestName is the archive entry holding the table manifest.
const ManifestName = "table.yml"

// PageFile names one page's on-disk source for inclusion in an
// archive written by SaveArchive.
type PageFile struct {
	Name string // entry name inside the archive
	Path string // source file on disk to copy bytes from
}

// SaveArchive writes a .tpz container at path: manifestYAML under
// ManifestName, plus one zip entry per page, deflate-compressed via
// klauspost/compress/flate rather than the stdlib compressor. Refuses
// to overwrite an existing file or to write to a non ".tpz" path.
func SaveArchive(path string, manifestYAML []byte, pages []PageFile) error {
	if !strings.HasSuffix(path, ".tpz") {
		return errs.ArgumentInvalidf("archive path %q must end in .tpz", path)
	}
	if _, err := os.Stat(path); err == nil {
		return errs.ArchiveExistsf("refusing to overwrite existing archive %q", path)
	} else if !os.IsNotExist(err) {
		return errs.IoFailuref(err, "checking archive path %q", path)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errs.IoFailuref(err, "creating archive %q", path)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestSpeed)
	})

	mw, err := zw.Create(ManifestName)
	if err != nil {
		return errs.IoFailuref(err, "writing manifest entry")
	}
	if _, err := mw.Write(manifestYAML); err != nil {
		return errs.IoFailuref(err, "writing manifest entry")
	}

	for _, p := range pages {
		if err := copyPageIntoArchive(zw, p); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return errs.IoFailuref(err, "finalizing archive %q", path)
	}
	return nil
}

func copyPageIntoArchive(zw *zip.Writer, p PageFile) error {
	pw, err := zw.Create(p.Name)
	if err != nil {
		return errs.IoFailuref(err, "writing page entry %s", p.Name)
	}
	src, err := os.Open(p.Path)
	if err != nil {
		return errs.IoFailuref(err, "reading page file %s", p.Path)
	}
	defer src.Close()
	if _, err := io.Copy(pw, src); err != nil {
		return errs.IoFailuref(err, "copying page %s into archive", p.Name)
	}
	return nil
}

// LoadArchive reads path's manifest document and every page entry's
// raw bytes, keyed by entry name.
func LoadArchive(path string) (manifestYAML []byte, pages map[string][]byte, err error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, errs.IoFailuref(err, "opening archive %q", path)
	}
	defer zr.Close()

	pages = make(map[string][]byte)
	for _, f := range zr.File {
		data, err := readZipEntry(f)
		if err != nil {
			return nil, nil, errs.IoFailuref(err, "reading archive entry %s", f.Name)
		}
		if f.Name == ManifestName {
			manifestYAML = data
		} else {
			pages[f.Name] = data
		}
	}
	if manifestYAML == nil {
		return nil, nil, errs.IoFailuref(fmt.Errorf("entry %s absent", ManifestName), "opening archive %q", path)
	}
	return manifestYAML, pages, nil
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
