package entity

// Kind distinguishes directory partners from stores.
type Kind string

// Kind constants.
const (
	KindPartner Kind = "partner"
	KindStore   Kind = "store"
)

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	return k == KindPartner || k == KindStore
}
