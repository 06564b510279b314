package models

// Course represents a course being reported on.
type Course struct {
	ID        int64  `db:"id" json:"id"`
	ShortName string `db:"short_name" json:"short_name"`
	FullName  string `db:"full_name" json:"full_name"`
}

// EnrolledUser is a user with an active enrollment in a course.
type EnrolledUser struct {
	ID        int64  `db:"id" json:"id"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Email     string `db:"email" json:"email"`
}
