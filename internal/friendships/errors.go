package friendships

import "errors"

var (
	// ErrInvalidInput indicates a missing or empty user identifier.
	ErrInvalidInput = errors.New("user identifiers are required")
	// ErrSelfRequest indicates the requester and recipient are the same user.
	ErrSelfRequest = errors.New("cannot send a friend request to yourself")
	// ErrAlreadyFriends indicates the pair already has an accepted relationship.
	ErrAlreadyFriends = errors.New("users are already friends")
	// ErrRequestAlreadyPending indicates the pair already has a pending request in either direction.
	ErrRequestAlreadyPending = errors.New("friend request already pending")
	// ErrNotFound indicates the referenced friendship does not exist.
	ErrNotFound = errors.New("friendship not found")
	// ErrNotPending indicates the friendship is not awaiting a response.
	ErrNotPending = errors.New("friend request is not pending")
	// ErrNotAccepted indicates the friendship has not been accepted.
	ErrNotAccepted = errors.New("friendship is not accepted")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrInvalidInput, "invalid_input"},
	{ErrSelfRequest, "self_request"},
	{ErrAlreadyFriends, "already_friends"},
	{ErrRequestAlreadyPending, "request_already_pending"},
	{ErrNotFound, "not_found"},
	{ErrNotPending, "not_pending"},
	{ErrNotAccepted, "not_accepted"},
}

// Code returns the stable reason code for a store error, or "" when err is
// nil or did not originate from the store.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}
