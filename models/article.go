package models

import "time"

type Author struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Bio  string `json:"bio,omitempty"`
}

type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Article struct {
	ID       int        `json:"id"`
	Title    string     `json:"title"`
	Content  string     `json:"content,omitempty"`
	Author   Author     `json:"author"`
	Category Category   `json:"category"`
	Tags     []Tag      `json:"tags"`
	PubDate  *time.Time `json:"pub_date"`
}

func (a Article) TagIDs() []int {
	ids := make([]int, 0, len(a.Tags))
	for _, t := range a.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}
