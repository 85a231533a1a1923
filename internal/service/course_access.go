package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/ajarin-go-api/internal/models"
	"github.com/noah-isme/ajarin-go-api/internal/repository"
)

// Membership describes how a user relates to a course.
type Membership struct {
	Course   models.Course
	Owner    bool
	Enrolled bool
}

// CanView reports whether the user may read course content.
func (m Membership) CanView() bool {
	return m.Owner || m.Enrolled
}

// CourseAccess answers the enrollment and ownership questions every engine asks.
type CourseAccess interface {
	Membership(ctx context.Context, userID, courseID uint) (Membership, bool, error)
	RequireMember(ctx context.Context, userID, courseID uint) (Membership, error)
	RequireOwner(ctx context.Context, userID, courseID uint) (Membership, error)
}

type courseAccess struct {
	courses repository.CourseRepository
}

// NewCourseAccess builds the course access checker.
func NewCourseAccess(courses repository.CourseRepository) CourseAccess {
	return &courseAccess{courses: courses}
}

// Membership resolves the relation; the bool is false when the course does not exist.
func (a *courseAccess) Membership(ctx context.Context, userID, courseID uint) (Membership, bool, error) {
	course, err := a.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Membership{}, false, nil
		}
		return Membership{}, false, err
	}

	membership := Membership{Course: course, Owner: course.IsOwnedBy(userID)}
	if membership.Owner {
		return membership, true, nil
	}

	enrolled, err := a.courses.IsEnrolled(ctx, userID, courseID)
	if err != nil {
		return Membership{}, true, err
	}
	membership.Enrolled = enrolled

	return membership, true, nil
}

// RequireMember fails with ErrNotEnrolled whether or not the course exists.
func (a *courseAccess) RequireMember(ctx context.Context, userID, courseID uint) (Membership, error) {
	membership, found, err := a.Membership(ctx, userID, courseID)
	if err != nil {
		return Membership{}, err
	}
	if !found || !membership.CanView() {
		return Membership{}, ErrNotEnrolled
	}
	return membership, nil
}

// RequireOwner fails with ErrNotCourseOwner whether or not the course exists.
func (a *courseAccess) RequireOwner(ctx context.Context, userID, courseID uint) (Membership, error) {
	membership, found, err := a.Membership(ctx, userID, courseID)
	if err != nil {
		return Membership{}, err
	}
	if !found || !membership.Owner {
		return Membership{}, ErrNotCourseOwner
	}
	return membership, nil
}
