// Package jsonfile реализует хранилище магазина в одном JSON‑файле.
//
// Данные целиком читаются при открытии и целиком перезаписываются после
// каждого изменения. Предыдущая версия файла сохраняется рядом с
// расширением .bak; хранится только одна резервная копия.
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/magabrotheeeer/storefront/internal/storage/memory"
)

// BackupSuffix - суффикс файла с предыдущей версией данных.
const BackupSuffix = ".bak"

// rename подменяется в тестах.
var rename = os.Rename

// Storage - хранилище, синхронизированное с файлом.
type Storage struct {
	*memory.Storage
	path string
}

// Open читает файл path (если он существует) и возвращает хранилище.
func Open(path string) (*Storage, error) {
	const op = "storage.jsonfile.Open"

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	snap, err := load(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := &Storage{path: path}
	s.Storage = memory.FromSnapshot(snap, s.write)
	return s, nil
}

// Path возвращает путь к файлу данных.
func (s *Storage) Path() string { return s.path }

func load(path string) (memory.Snapshot, error) {
	var snap memory.Snapshot
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return snap, nil
	}
	if err != nil {
		return snap, err
	}
	if len(data) == 0 {
		return snap, nil
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("decode %s: %w", path, err)
	}
	return snap, nil
}

// write записывает снимок во временный файл, переносит текущий файл в .bak
// и переименовывает временный файл на место основного. Если последний шаг
// не удался, основной файл возвращается из .bak.
func (s *Storage) write(snap memory.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	backup := s.path + BackupSuffix
	_, statErr := os.Stat(s.path)
	hadFile := statErr == nil
	if hadFile {
		if err := rename(s.path, backup); err != nil {
			_ = os.Remove(tmp)
			return err
		}
	}
	if err := rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		if hadFile {
			if rerr := rename(backup, s.path); rerr != nil {
				return fmt.Errorf("%w (restore from %s: %v)", err, backup, rerr)
			}
		}
		return err
	}
	return nil
}
