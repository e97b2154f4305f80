package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleUser }

// User is a registered identity. PasswordHash is only populated when a read
// explicitly asks for it and is never serialised.
type User struct {
	ID           int64       `db:"id" bson:"_id" json:"-"`
	Username     string      `db:"username" bson:"username" json:"username"`
	Email        string      `db:"email" bson:"email" json:"email"`
	PasswordHash string      `db:"password_hash" bson:"password,omitempty" json:"-"`
	Role         Role        `db:"role" bson:"role" json:"role"`
	FirstName    string      `db:"first_name" bson:"firstName,omitempty" json:"firstName,omitempty"`
	LastName     string      `db:"last_name" bson:"lastName,omitempty" json:"lastName,omitempty"`
	SocialLinks  SocialLinks `db:"social_links" bson:"socialLinks" json:"socialLinks"`
	CreatedAt    time.Time   `db:"created_at" bson:"createdAt" json:"-"`
	UpdatedAt    time.Time   `db:"updated_at" bson:"updatedAt" json:"-"`
}

// SocialLinks are optional profile urls, each at most 100 characters.
type SocialLinks struct {
	Website   string `json:"website,omitempty" bson:"website,omitempty" validate:"omitempty,max=100,url"`
	Facebook  string `json:"facebook,omitempty" bson:"facebook,omitempty" validate:"omitempty,max=100,url"`
	Instagram string `json:"instagram,omitempty" bson:"instagram,omitempty" validate:"omitempty,max=100,url"`
	X         string `json:"x,omitempty" bson:"x,omitempty" validate:"omitempty,max=100,url"`
	YouTube   string `json:"youtube,omitempty" bson:"youtube,omitempty" validate:"omitempty,max=100,url"`
	LinkedIn  string `json:"linkedin,omitempty" bson:"linkedin,omitempty" validate:"omitempty,max=100,url"`
}

// Value stores the links as a JSON document column. It is sent as text since
// lib/pq encodes []byte parameters as bytea.
func (l SocialLinks) Value() (driver.Value, error) {
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *SocialLinks) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = SocialLinks{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("social links: unsupported type %T", src)
	}
}

// Summary is the public projection returned by the auth endpoints.
type Summary struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

func (u *User) Summary() Summary {
	return Summary{Username: u.Username, Email: u.Email, Role: u.Role}
}
