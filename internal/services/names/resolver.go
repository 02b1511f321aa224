package names

import (
	"fmt"

	"github.com/LimitAL/cafemaker-web/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Name entry kinds.
const (
	KindRetainer  = "retainer"
	KindSignature = "signature"
	KindCharacter = "character"
)

// Resolver maps display names (retainers, crafter signatures, buyer
// characters) to opaque internal ids, creating entries on first sighting.
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Resolve returns the internal id for (kind, name), inserting a new entry
// when none exists. The insert is a conflict-tolerant no-op when another
// worker created the row first, so concurrent workers always converge on
// one id per key. Empty names resolve to an empty id.
func (r *Resolver) Resolve(kind, name string) (string, error) {
	if name == "" {
		return "", nil
	}

	entry := models.NameEntry{
		ID:   uuid.NewString(),
		Kind: kind,
		Name: name,
	}
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error; err != nil {
		return "", fmt.Errorf("failed to insert %s name %q: %w", kind, name, err)
	}

	var out models.NameEntry
	if err := r.db.Where("kind = ? AND name = ?", kind, name).First(&out).Error; err != nil {
		return "", fmt.Errorf("failed to look up %s name %q: %w", kind, name, err)
	}
	return out.ID, nil
}
