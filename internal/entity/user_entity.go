package entity

import "time"

type User struct {
	Id        string    `bson:"_id" json:"id"`
	Username  string    `bson:"username" json:"username"`
	Password  string    `bson:"password" json:"-"` // bcrypt hash, never serialized
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
