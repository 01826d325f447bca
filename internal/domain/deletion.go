package domain

// DeletionPolicy tells how an entity disappears when deleted.
type DeletionPolicy int

const (
	// HardDelete removes the row.
	HardDelete DeletionPolicy = iota
	// SoftDelete stamps deleted_at and hides the row from listings.
	SoftDelete
)

func (p DeletionPolicy) String() string {
	if p == SoftDelete {
		return "soft"
	}
	return "hard"
}

// Deletable is implemented by every persisted entity.
type Deletable interface {
	DeletionPolicy() DeletionPolicy
}

var (
	_ Deletable = (*User)(nil)
	_ Deletable = (*Company)(nil)
	_ Deletable = (*Category)(nil)
	_ Deletable = (*Transaction)(nil)
)
