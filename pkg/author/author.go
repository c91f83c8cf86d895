// Package author implements the registry-side Author record: the storage
// quota every uploaded Version draws against (spec.md §3, §4.4 step 11).
package author

import "fmt"

// DefaultTotalStorage is the default per-author storage quota (spec.md §3).
const DefaultTotalStorage int64 = 512 * 1024 * 1024

// Author mirrors the identity-side User by id and tracks registry-specific
// storage usage. Invariant: 0 <= UsedStorage <= TotalStorage.
type Author struct {
	AuthorID      string
	AuthorName    string
	AuthorEmail   string
	EmailVerified bool
	UsedStorage   int64
	TotalStorage  int64
	AuthorBanned  bool
	BanReason     *string
}

// Response is the JSON representation returned to clients.
type Response struct {
	AuthorID     string `json:"author_id"`
	AuthorName   string `json:"author_name"`
	UsedStorage  int64  `json:"used_storage"`
	TotalStorage int64  `json:"total_storage"`
	AuthorBanned bool   `json:"author_banned"`
}

// ToResponse strips fields not meant for general clients.
func (a Author) ToResponse() Response {
	return Response{
		AuthorID:     a.AuthorID,
		AuthorName:   a.AuthorName,
		UsedStorage:  a.UsedStorage,
		TotalStorage: a.TotalStorage,
		AuthorBanned: a.AuthorBanned,
	}
}

// Validate enforces the 0 <= UsedStorage <= TotalStorage invariant.
func (a Author) Validate() error {
	if a.UsedStorage < 0 {
		return fmt.Errorf("author: used storage %d is negative", a.UsedStorage)
	}
	if a.UsedStorage > a.TotalStorage {
		return fmt.Errorf("author: used storage %d exceeds total %d", a.UsedStorage, a.TotalStorage)
	}
	return nil
}
