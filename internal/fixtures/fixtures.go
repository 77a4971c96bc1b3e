// Package fixtures supplies the seed users, activity feed and friendships the
// service starts from.
package fixtures

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/coursemates/backend/internal/models"
)

//go:embed data/*.json
var embedded embed.FS

// ErrInvalidBundle indicates the seed data violates a friendship or reference invariant.
var ErrInvalidBundle = errors.New("invalid fixture bundle")

// Bundle groups every seed dataset.
type Bundle struct {
	Users       []models.User          `json:"users"`
	Activity    []models.ActivityEntry `json:"activity"`
	Friendships []models.Friendship    `json:"friendships"`
}

// Embedded loads the bundle compiled into the binary.
func Embedded() (Bundle, error) {
	var b Bundle
	files := []struct {
		name string
		into any
	}{
		{"data/users.json", &b.Users},
		{"data/activity.json", &b.Activity},
		{"data/friendships.json", &b.Friendships},
	}

	for _, f := range files {
		raw, err := embedded.ReadFile(f.name)
		if err != nil {
			return Bundle{}, fmt.Errorf("read %s: %w", f.name, err)
		}
		if err := json.Unmarshal(raw, f.into); err != nil {
			return Bundle{}, fmt.Errorf("decode %s: %w", f.name, err)
		}
	}

	return b.normalise()
}

// Decode reads a single JSON document holding a full bundle.
func Decode(r io.Reader) (Bundle, error) {
	var b Bundle
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return Bundle{}, fmt.Errorf("decode fixture bundle: %w", err)
	}
	return b.normalise()
}

// Encode writes the bundle as a single JSON document readable by Decode.
func (b Bundle) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("encode fixture bundle: %w", err)
	}
	return nil
}

// Validate checks referential integrity and the friendship invariants:
// no self-friendship, one live record per unordered pair, acceptedAt set
// exactly when accepted, no declined records.
func (b Bundle) Validate() error {
	users := make(map[string]struct{}, len(b.Users))
	for _, u := range b.Users {
		if u.ID == "" {
			return fmt.Errorf("%w: user with empty id", ErrInvalidBundle)
		}
		if _, dup := users[u.ID]; dup {
			return fmt.Errorf("%w: duplicate user %q", ErrInvalidBundle, u.ID)
		}
		users[u.ID] = struct{}{}
	}

	activity := make(map[string]struct{}, len(b.Activity))
	for _, a := range b.Activity {
		if _, dup := activity[a.ID]; dup || a.ID == "" {
			return fmt.Errorf("%w: activity id %q is empty or duplicated", ErrInvalidBundle, a.ID)
		}
		activity[a.ID] = struct{}{}
		if _, ok := users[a.UserID]; !ok {
			return fmt.Errorf("%w: activity %q references unknown user %q", ErrInvalidBundle, a.ID, a.UserID)
		}
	}

	ids := make(map[string]struct{}, len(b.Friendships))
	pairs := make(map[[2]string]string, len(b.Friendships))
	for _, f := range b.Friendships {
		if _, dup := ids[f.ID]; dup || f.ID == "" {
			return fmt.Errorf("%w: friendship id %q is empty or duplicated", ErrInvalidBundle, f.ID)
		}
		ids[f.ID] = struct{}{}

		for _, party := range []string{f.UserID, f.FriendID} {
			if _, ok := users[party]; !ok {
				return fmt.Errorf("%w: friendship %q references unknown user %q", ErrInvalidBundle, f.ID, party)
			}
		}
		if f.UserID == f.FriendID {
			return fmt.Errorf("%w: friendship %q is a self-friendship", ErrInvalidBundle, f.ID)
		}

		switch f.Status {
		case models.FriendshipPending:
			if f.AcceptedAt != nil {
				return fmt.Errorf("%w: pending friendship %q has acceptedAt", ErrInvalidBundle, f.ID)
			}
		case models.FriendshipAccepted:
			if f.AcceptedAt == nil {
				return fmt.Errorf("%w: accepted friendship %q lacks acceptedAt", ErrInvalidBundle, f.ID)
			}
		default:
			return fmt.Errorf("%w: friendship %q has status %q", ErrInvalidBundle, f.ID, f.Status)
		}

		pair := [2]string{f.UserID, f.FriendID}
		if pair[0] > pair[1] {
			pair[0], pair[1] = pair[1], pair[0]
		}
		if other, dup := pairs[pair]; dup {
			return fmt.Errorf("%w: friendships %q and %q share a pair", ErrInvalidBundle, other, f.ID)
		}
		pairs[pair] = f.ID
	}

	return nil
}

func (b Bundle) normalise() (Bundle, error) {
	if err := b.Validate(); err != nil {
		return Bundle{}, err
	}
	if b.Users == nil {
		b.Users = []models.User{}
	}
	if b.Activity == nil {
		b.Activity = []models.ActivityEntry{}
	}
	if b.Friendships == nil {
		b.Friendships = []models.Friendship{}
	}
	sort.SliceStable(b.Activity, func(i, j int) bool {
		return b.Activity[i].OccurredAt.After(b.Activity[j].OccurredAt)
	})
	return b, nil
}
