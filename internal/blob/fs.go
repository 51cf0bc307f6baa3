package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Filesystem stores blobs under a root directory. Object metadata lives in a
// JSON sidecar next to each payload so a plain directory copy preserves it.
type Filesystem struct {
	root string
}

// NewFilesystem creates the root directory if needed and returns the store.
func NewFilesystem(root string) (*Filesystem, error) {
	if root == "" {
		return nil, fmt.Errorf("blob: filesystem root required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blob: create root: %w", err)
	}
	return &Filesystem{root: root}, nil
}

// Driver reports DriverFilesystem.
func (f *Filesystem) Driver() Driver { return DriverFilesystem }

const metaSuffix = ".meta.json"

type fsMeta struct {
	ContentType string            `json:"content_type,omitempty"`
	ETag        string            `json:"etag"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// sanitizeKey rejects keys that would escape the root directory.
func sanitizeKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("blob: empty key")
	}
	clean := filepath.ToSlash(filepath.Clean("/" + key))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("blob: invalid key %q", key)
	}
	return clean, nil
}

func (f *Filesystem) paths(key string) (clean, payload, meta string, err error) {
	clean, err = sanitizeKey(key)
	if err != nil {
		return "", "", "", err
	}
	payload = filepath.Join(f.root, filepath.FromSlash(clean))
	return clean, payload, payload + metaSuffix, nil
}

// Put writes the payload via a temp file and rename so readers never observe
// a partially written blob.
func (f *Filesystem) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	clean, payloadPath, metaPath, err := f.paths(key)
	if err != nil {
		return Info{}, err
	}
	if err := os.MkdirAll(filepath.Dir(payloadPath), 0o755); err != nil {
		return Info{}, fmt.Errorf("blob: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(payloadPath), ".put-*")
	if err != nil {
		return Info{}, fmt.Errorf("blob: temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hasher), r)
	if err != nil {
		tmp.Close()
		return Info{}, fmt.Errorf("blob: write payload: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return Info{}, fmt.Errorf("blob: sync payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Info{}, fmt.Errorf("blob: close payload: %w", err)
	}

	etag := hex.EncodeToString(hasher.Sum(nil))
	meta := fsMeta{ContentType: opts.ContentType, ETag: etag, Metadata: cloneMetadata(opts.Metadata)}
	raw, err := json.Marshal(meta)
	if err != nil {
		return Info{}, fmt.Errorf("blob: encode meta: %w", err)
	}
	if err := os.WriteFile(metaPath, raw, 0o644); err != nil {
		return Info{}, fmt.Errorf("blob: write meta: %w", err)
	}
	if err := os.Rename(tmpName, payloadPath); err != nil {
		return Info{}, fmt.Errorf("blob: rename payload: %w", err)
	}
	return Info{
		Key:          clean,
		Size:         size,
		ContentType:  opts.ContentType,
		ETag:         etag,
		Metadata:     cloneMetadata(opts.Metadata),
		LastModified: time.Now().UTC(),
	}, nil
}

// Get opens the payload for reading. Callers own the returned ReadCloser.
func (f *Filesystem) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, nil, err
	}
	_, payloadPath, metaPath, err := f.paths(key)
	if err != nil {
		return Info{}, nil, err
	}
	info, err := f.stat(payloadPath, metaPath)
	if err != nil {
		return Info{}, nil, err
	}
	file, err := os.Open(payloadPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, nil, ErrNotFound
		}
		return Info{}, nil, fmt.Errorf("blob: open payload: %w", err)
	}
	return info, file, nil
}

// Delete removes the payload and its sidecar, reporting whether the blob existed.
func (f *Filesystem) Delete(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, payloadPath, metaPath, err := f.paths(key)
	if err != nil {
		return false, err
	}
	err = os.Remove(payloadPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("blob: remove payload: %w", err)
	}
	// Best effort: a missing sidecar is not an error.
	_ = os.Remove(metaPath)
	return true, nil
}

// List returns blobs whose key starts with prefix, sorted by key.
func (f *Filesystem) List(ctx context.Context, prefix string) ([]Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var infos []Info
	err := filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, metaSuffix) || strings.HasPrefix(d.Name(), ".put-") {
			return nil
		}
		rel, err := filepath.Rel(f.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := f.stat(path, path+metaSuffix)
		if err != nil {
			return err
		}
		infos = append(infos, info)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("blob: list: %w", err)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func (f *Filesystem) stat(payloadPath, metaPath string) (Info, error) {
	st, err := os.Stat(payloadPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, ErrNotFound
		}
		return Info{}, fmt.Errorf("blob: stat payload: %w", err)
	}
	rel, err := filepath.Rel(f.root, payloadPath)
	if err != nil {
		return Info{}, err
	}
	info := Info{
		Key:          filepath.ToSlash(rel),
		Size:         st.Size(),
		LastModified: st.ModTime().UTC(),
	}
	raw, err := os.ReadFile(metaPath)
	if err == nil {
		var meta fsMeta
		if err := json.Unmarshal(raw, &meta); err == nil {
			info.ContentType = meta.ContentType
			info.ETag = meta.ETag
			info.Metadata = meta.Metadata
		}
	}
	return info, nil
}

var _ Store = (*Filesystem)(nil)
