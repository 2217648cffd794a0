package catalog

import "strings"

type Gender string

const (
	Male   Gender = "Male"
	Female Gender = "Female"
	Other  Gender = "Other"
)

var Genders = []Gender{Male, Female, Other}

func ParseGender(s string) (Gender, bool) {
	for _, g := range Genders {
		if strings.EqualFold(strings.TrimSpace(s), string(g)) {
			return g, true
		}
	}
	return "", false
}

// Book as the backend sends it. OwnerUserID never changes after creation.
type Book struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Gender      Gender `json:"gender"`
	OwnerUserID string `json:"userId"`
}

type NewBook struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Gender Gender `json:"gender"`
}

// Credential is sent once and never kept
type Credential struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
