package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bnema/lumiere-ledger/internal/domain"
	"github.com/bnema/lumiere-ledger/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	storeDirMode   = 0o700
	memoryFileMode = 0o600
	memoryFileExt  = ".toml"
)

// Store keeps one TOML document of committed interactions per resource key.
type Store struct {
	root string
	mu   sync.RWMutex
}

var _ ports.MemoryStore = (*Store)(nil)

type memoryFile struct {
	ResourceKey string         `toml:"resource_key"`
	Records     []recordSchema `toml:"records"`
}

type recordSchema struct {
	MessageID   string `toml:"message_id"`
	Specialty   string `toml:"specialty"`
	Actor       string `toml:"actor"`
	Question    string `toml:"question"`
	Answer      string `toml:"answer"`
	CommittedAt string `toml:"committed_at"`
}

func NewStore(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

// Commit appends record to its resource's memory. A record whose message id is already
// stored replaces the earlier one.
func (s *Store) Commit(ctx context.Context, record domain.MemoryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathForKey(record.ResourceKey)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := readMemoryFile(path)
	if err != nil {
		return err
	}
	file.ResourceKey = record.ResourceKey

	encoded := recordSchema{
		MessageID:   record.MessageID,
		Specialty:   record.Specialty,
		Actor:       record.Actor,
		Question:    record.Question,
		Answer:      record.Answer,
		CommittedAt: record.CommittedAt.UTC().Format(time.RFC3339Nano),
	}

	replaced := false
	for i := range file.Records {
		if file.Records[i].MessageID == encoded.MessageID {
			file.Records[i] = encoded
			replaced = true
			break
		}
	}
	if !replaced {
		file.Records = append(file.Records, encoded)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode memory for %q: %w", record.ResourceKey, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), storeDirMode); err != nil {
		return fmt.Errorf("create memory directory: %w", err)
	}

	if err := os.WriteFile(path, data, memoryFileMode); err != nil {
		return fmt.Errorf("write memory for %q: %w", record.ResourceKey, err)
	}

	return nil
}

func (s *Store) List(ctx context.Context, resourceKey string) ([]domain.MemoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.pathForKey(resourceKey)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := readMemoryFile(path)
	if err != nil {
		return nil, err
	}

	records := make([]domain.MemoryRecord, 0, len(file.Records))
	for _, encoded := range file.Records {
		committedAt, _ := time.Parse(time.RFC3339Nano, encoded.CommittedAt)
		records = append(records, domain.MemoryRecord{
			ResourceKey: resourceKey,
			Specialty:   encoded.Specialty,
			Actor:       encoded.Actor,
			MessageID:   encoded.MessageID,
			Question:    encoded.Question,
			Answer:      encoded.Answer,
			CommittedAt: committedAt.UTC(),
		})
	}

	return records, nil
}

func readMemoryFile(path string) (memoryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return memoryFile{}, nil
		}
		return memoryFile{}, fmt.Errorf("read memory file: %w", err)
	}

	var file memoryFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return memoryFile{}, fmt.Errorf("decode memory file: %w", err)
	}

	return file, nil
}

// pathForKey maps "personal::alice" to <root>/personal/alice.toml and "finance" to <root>/finance.toml.
func (s *Store) pathForKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", errors.New("resource key is empty")
	}

	cleaned := filepath.Clean(strings.ReplaceAll(trimmed, "::", string(filepath.Separator)))
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") || cleaned == "." {
		return "", fmt.Errorf("invalid resource key %q", key)
	}

	return filepath.Join(s.root, cleaned+memoryFileExt), nil
}
