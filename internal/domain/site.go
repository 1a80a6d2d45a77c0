package domain

import "time"

type Site struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}

type Doctor struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"fullName"`
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}

type Room struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
