package entity

import "time"

// User is an employee account. Every mutating call must name an acting user;
// the id is resolved against this table before an action log entry is
// written.
type User struct {
	ID        string     `json:"id" gorm:"primaryKey;size:32"`
	Username  string     `json:"username" gorm:"size:100;uniqueIndex;not null"`
	FirstName string     `json:"firstname" gorm:"size:100"`
	LastName  string     `json:"lastname" gorm:"size:100"`
	Email     string     `json:"email" gorm:"size:200"`
	Roles     StringList `json:"roles" gorm:"type:jsonb"`
	Active    bool       `json:"active" gorm:"default:true"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "shop_users"
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
