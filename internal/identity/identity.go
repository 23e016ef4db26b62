package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"demand-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Provider issues a pseudo-anonymous voter id, stable across sessions on one
// installation. It is a deduplication key, not a security principal.
type Provider struct {
	path   string
	logger *zap.Logger
}

// NewProvider creates a provider persisting to the given file path
func NewProvider(path string) *Provider {
	return &Provider{
		path:   path,
		logger: util.GetLogger(),
	}
}

// NewVoterID mints a fresh id from the current time plus a random suffix.
// The suffix makes simultaneous first-time clients collision-free in practice.
func NewVoterID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("user_%d_%s", time.Now().UnixMilli(), suffix)
}

// GetOrCreateVoterID reads the persisted id, minting and persisting one on
// first use. If the state file is unusable every call degenerates to a fresh
// id, which silently breaks "my vote" tracking across sessions; that weakness
// is logged rather than fixed.
func (p *Provider) GetOrCreateVoterID() string {
	if data, err := os.ReadFile(p.path); err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id
		}
	}

	id := NewVoterID()

	if dir := filepath.Dir(p.path); dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	if err := os.WriteFile(p.path, []byte(id+"\n"), 0o600); err != nil {
		p.logger.Warn("Failed to persist voter id, vote tracking will not survive restarts",
			zap.String("path", p.path),
			zap.Error(err))
	}

	return id
}
