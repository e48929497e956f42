package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FSStore 把内容缓存在本地文件系统。
//
// 目录布局：
//
//	<root>/blobs/<逻辑路径>   内容字节
//	<root>/meta/<逻辑路径>    元数据（目前只有 content-type 一行）
//
// blobs 与 meta 分目录，避免元数据文件名与其它资源的路径冲突。
type FSStore struct {
	root string
}

func NewFSStore(root string) (*FSStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	for _, sub := range []string{"blobs", "meta"} {
		if err := os.MkdirAll(filepath.Join(abs, sub), 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	return &FSStore{root: abs}, nil
}

func (s *FSStore) Exists(ctx context.Context, path string) (bool, error) {
	p, err := s.blobPath(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *FSStore) Get(ctx context.Context, path string) (*Content, error) {
	p, err := s.blobPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	ct := "application/octet-stream"
	mp, err := s.metaPath(path)
	if err == nil {
		if raw, err := os.ReadFile(mp); err == nil {
			if v := strings.TrimSpace(string(raw)); v != "" {
				ct = v
			}
		}
		// 元数据缺失/损坏不致命，退回默认 content-type
	}

	return &Content{Data: data, ContentType: ct}, nil
}

// Put 原子写入：先写临时文件再 rename，外界永远看不到半写的内容。
func (s *FSStore) Put(ctx context.Context, path string, content *Content) error {
	p, err := s.blobPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}

	if err := atomicWrite(p, content.Data); err != nil {
		return err
	}

	if content.ContentType != "" {
		mp, err := s.metaPath(path)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(mp), 0755); err != nil {
			return fmt.Errorf("failed to create meta directory: %w", err)
		}
		if err := atomicWrite(mp, []byte(content.ContentType+"\n")); err != nil {
			return err
		}
	}
	return nil
}

func (s *FSStore) Remove(ctx context.Context, path string) error {
	p, err := s.blobPath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if mp, err := s.metaPath(path); err == nil {
		if err := os.Remove(mp); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// atomicWrite 先写 .tmp 再 rename。rename 在同一文件系统内是原子的，
// 这保证了“覆盖写不串字节、读不到半个文件”。
func atomicWrite(dst string, data []byte) error {
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func (s *FSStore) blobPath(path string) (string, error) {
	return s.join("blobs", path)
}

func (s *FSStore) metaPath(path string) (string, error) {
	return s.join("meta", path)
}

// join 把逻辑路径映射到 root 下，并二次确认不会越出缓存目录。
// 领域层的 NormalizePath 已经挡掉 ..，这里是存储层自己的边界检查。
func (s *FSStore) join(sub, path string) (string, error) {
	full := filepath.Join(s.root, sub, filepath.FromSlash(path))
	prefix := filepath.Join(s.root, sub) + string(filepath.Separator)
	if !strings.HasPrefix(full, prefix) {
		return "", fmt.Errorf("path escapes cache dir: %q", path)
	}
	return full, nil
}
