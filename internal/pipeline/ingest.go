package pipeline

import (
	"archive/zip"
	"bytes"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/jhillyerd/enmime"

	"docmine/internal"
)

// CollectInputs walks root and gathers every PDF it can reach: plain
// .pdf files, .pdf entries inside .zip archives, and .pdf attachments on
// .eml messages. Root may also name a single file. Only a failure on
// root itself aborts the walk: a .pdf that cannot be read is collected
// with an empty body so it still surfaces as an error row, and
// containers that fail to read or parse contribute nothing.
func CollectInputs(root string) ([]internal.InputFile, error) {
	inputs := make([]internal.InputFile, 0)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		lower := strings.ToLower(d.Name())
		switch {
		case strings.HasSuffix(lower, ".pdf"):
			raw, err := os.ReadFile(p)
			if err != nil {
				raw = nil
			}
			inputs = append(inputs, internal.InputFile{
				Name:   d.Name(),
				Source: internal.SourceFile,
				Origin: p,
				Raw:    raw,
			})
		case strings.HasSuffix(lower, ".zip"):
			raw, err := os.ReadFile(p)
			if err != nil {
				return nil
			}
			inputs = append(inputs, inputsFromZIP(p, raw)...)
		case strings.HasSuffix(lower, ".eml"):
			raw, err := os.ReadFile(p)
			if err != nil {
				return nil
			}
			inputs = append(inputs, inputsFromEML(p, raw)...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inputs, nil
}

func inputsFromZIP(origin string, raw []byte) []internal.InputFile {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil
	}
	out := make([]internal.InputFile, 0, len(zr.File))
	for _, entry := range zr.File {
		if !strings.HasSuffix(strings.ToLower(entry.Name), ".pdf") {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			continue
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		out = append(out, internal.InputFile{
			Name:   path.Base(entry.Name),
			Source: internal.SourceZIPEntry,
			Origin: origin,
			Raw:    content,
		})
	}
	return out
}

func inputsFromEML(origin string, raw []byte) []internal.InputFile {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil
	}
	out := make([]internal.InputFile, 0, len(env.Attachments))
	for _, att := range env.Attachments {
		filename := strings.TrimSpace(att.FileName)
		if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
			continue
		}
		out = append(out, internal.InputFile{
			Name:   filename,
			Source: internal.SourceEMLAttachment,
			Origin: origin,
			Raw:    att.Content,
		})
	}
	return out
}
