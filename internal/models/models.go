package models

import "time"

// SubscriptionTier identifies the plan a learner is enrolled on.
type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "free"
	TierPremium SubscriptionTier = "premium"
	TierPro     SubscriptionTier = "pro"
)

// User represents a learner profile within the CourseMates platform.
type User struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Email           string           `json:"email"`
	AvatarURL       string           `json:"avatarUrl,omitempty"`
	Tier            SubscriptionTier `json:"tier"`
	EnrolledCourses []string         `json:"enrolledCourses"`
	JoinedAt        time.Time        `json:"joinedAt"`
}

// ActivityKind classifies entries in the course activity feed.
type ActivityKind string

const (
	ActivityCourseStarted   ActivityKind = "course_started"
	ActivityLessonCompleted ActivityKind = "lesson_completed"
	ActivityCourseCompleted ActivityKind = "course_completed"
	ActivityBadgeEarned     ActivityKind = "badge_earned"
)

// ActivityEntry is a single item of learner progress shown in the feed.
type ActivityEntry struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	Kind        ActivityKind `json:"kind"`
	CourseID    string       `json:"courseId"`
	CourseTitle string       `json:"courseTitle"`
	Detail      string       `json:"detail,omitempty"`
	OccurredAt  time.Time    `json:"occurredAt"`
}

// FriendshipStatus is the state of a relationship record.
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	// FriendshipDeclined is never stored; declined records are deleted.
	FriendshipDeclined FriendshipStatus = "declined"
)

// Friendship is a directed requester -> recipient record describing a
// symmetric relationship between two users.
type Friendship struct {
	ID         string           `json:"id"`
	UserID     string           `json:"userId"`
	FriendID   string           `json:"friendId"`
	Status     FriendshipStatus `json:"status"`
	CreatedAt  time.Time        `json:"createdAt"`
	AcceptedAt *time.Time       `json:"acceptedAt,omitempty"`
}

// Involves reports whether userID is either party of the relationship.
func (f Friendship) Involves(userID string) bool {
	return f.UserID == userID || f.FriendID == userID
}

// Counterpart returns the other party relative to userID.
func (f Friendship) Counterpart(userID string) string {
	if f.UserID == userID {
		return f.FriendID
	}
	return f.UserID
}

// Clone returns a copy that shares no memory with f.
func (f Friendship) Clone() Friendship {
	if f.AcceptedAt != nil {
		t := *f.AcceptedAt
		f.AcceptedAt = &t
	}
	return f
}

// Clone returns a copy of the profile with its own course slice.
func (u User) Clone() User {
	if u.EnrolledCourses != nil {
		u.EnrolledCourses = append([]string(nil), u.EnrolledCourses...)
	}
	return u
}
