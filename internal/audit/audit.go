// Package audit persists administrative actions as JSON files so that
// catalog changes and review moderation decisions leave a durable trail.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

type Auditor struct {
	AuditDir string
}

// record is the on-disk envelope wrapped around every audited payload.
type record struct {
	ID      string    `json:"id"`
	Event   string    `json:"event"`
	ActorID uint      `json:"actor_id"`
	At      time.Time `json:"at"`
	Data    any       `json:"data,omitempty"`
}

func NewAuditor(auditDir string) *Auditor {
	return &Auditor{
		AuditDir: auditDir,
	}
}

// Record saves an audit entry for the given event and returns the name of
// the file it was written to. The filename embeds the event name and a
// UUID so concurrent writers never collide.
func (a *Auditor) Record(event string, actorID uint, data any) (string, error) {
	if err := a.ensureAuditDir(); err != nil {
		return "", fmt.Errorf("failed to ensure audit directory: %w", err)
	}

	entry := record{
		ID:      uuid.New().String(),
		Event:   event,
		ActorID: actorID,
		At:      time.Now().UTC(),
		Data:    data,
	}

	filename := fmt.Sprintf("%s-%s.json", event, entry.ID)
	path := filepath.Join(a.AuditDir, filename)

	jsonData, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write audit file: %w", err)
	}

	return filename, nil
}

// ensureAuditDir creates the audit directory if it doesn't exist
func (a *Auditor) ensureAuditDir() error {
	if _, err := os.Stat(a.AuditDir); os.IsNotExist(err) {
		if err := os.MkdirAll(a.AuditDir, 0755); err != nil {
			return fmt.Errorf("failed to create audit directory: %w", err)
		}
	}
	return nil
}
