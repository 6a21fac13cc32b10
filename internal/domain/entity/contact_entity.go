package entity

import "time"

// Contact is an entry in a user's address book. UserID is the owning user;
// every repository operation is scoped by it.
type Contact struct {
	ID          int64
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Birthday    *time.Time
	ExtraData   string
	UserID      int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ContactPatch carries a partial update. Nil fields are left untouched.
type ContactPatch struct {
	FirstName   *string
	LastName    *string
	Email       *string
	PhoneNumber *string
	Birthday    *time.Time
	ExtraData   *string
}

func (p ContactPatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil &&
		p.PhoneNumber == nil && p.Birthday == nil && p.ExtraData == nil
}

// NextBirthday returns the first anniversary of the contact's birthday on or
// after today, ignoring the stored year. Feb 29 falls on Feb 28 in non-leap
// years. ok is false when no birthday is set.
func (c *Contact) NextBirthday(today time.Time) (next time.Time, ok bool) {
	if c.Birthday == nil {
		return time.Time{}, false
	}
	y, m, d := today.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	next = anniversary(*c.Birthday, y)
	if next.Before(start) {
		next = anniversary(*c.Birthday, y+1)
	}
	return next, true
}

// BirthdayWithin reports whether the next birthday falls in [today, today+days].
func (c *Contact) BirthdayWithin(today time.Time, days int) bool {
	next, ok := c.NextBirthday(today)
	if !ok {
		return false
	}
	y, m, d := today.Date()
	limit := time.Date(y, m, d+days, 0, 0, 0, 0, time.UTC)
	return !next.After(limit)
}

func anniversary(birthday time.Time, year int) time.Time {
	m, d := birthday.Month(), birthday.Day()
	if m == time.February && d == 29 && !isLeap(year) {
		d = 28
	}
	return time.Date(year, m, d, 0, 0, 0, 0, time.UTC)
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}
