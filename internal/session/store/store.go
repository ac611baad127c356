// store — долговременное хранилище учётных данных сессии на диске.
//
// Хранятся ровно две именованные строковые записи (refresh- и access-токен)
// в одном JSON-файле; запись атомарна (tmp + rename), чтобы пара токенов
// менялась одним переходом и не была видна в частично записанном виде.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Credentials — пара токенов сессии.
// Инвариант (поддерживается менеджером сессии): AccessToken непуст
// только при непустом RefreshToken.
type Credentials struct {
	RefreshToken string `json:"refresh_token"`
	AccessToken  string `json:"access_token"`
}

// FileStore — файловое хранилище учётных данных.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// New создаёт хранилище поверх файла path (файл может не существовать).
func New(path string) *FileStore {
	return &FileStore{path: path}
}

// Load читает сохранённые учётные данные.
// Отсутствие файла — не ошибка: возвращается пустая пара.
func (s *FileStore) Load() (Credentials, error) {
	const op = "session/store/Load"

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Credentials{}, nil
		}

		return Credentials{}, fmt.Errorf("%s: %w", op, err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		// Битый файл трактуем как отсутствие сессии.
		return Credentials{}, nil
	}

	return creds, nil
}

// Save атомарно записывает пару учётных данных (режим 0600).
func (s *FileStore) Save(creds Credentials) error {
	const op = "session/store/Save"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Clear стирает обе записи. Идемпотентна: отсутствие файла — не ошибка.
func (s *FileStore) Clear() error {
	const op = "session/store/Clear"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
