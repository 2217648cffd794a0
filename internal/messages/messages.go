// Package messages holds every user-facing string the screens show, looked up through a
// go-i18n bundle. English is built in; other languages are loaded from locales/*.toml.
package messages

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	toml "github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

type ID string

const (
	RegisterFailed    ID = "RegisterFailed"
	RegisterSucceeded ID = "RegisterSucceeded"
	LoginFailed       ID = "LoginFailed"
	FieldsRequired    ID = "FieldsRequired"
	InvalidGender     ID = "InvalidGender"
	Unauthorized      ID = "Unauthorized"
	FetchFailed       ID = "FetchFailed"
	AddFailed         ID = "AddFailed"
	BookAdded         ID = "BookAdded"
	DeleteFailed      ID = "DeleteFailed"
	BookDeleted       ID = "BookDeleted"
	LogoutFailed      ID = "LogoutFailed"
)

var defaults = map[ID]string{
	RegisterFailed:    "User already exists, try with a different email ID.",
	RegisterSucceeded: "Registration successful. Please log in.",
	LoginFailed:       "Login failed. Please try again.",
	FieldsRequired:    "Please fill in all required fields.",
	InvalidGender:     "Please select Male, Female or Other.",
	Unauthorized:      "Unauthorized. Please log in again.",
	FetchFailed:       "Failed to fetch books. Please try again.",
	AddFailed:         "Failed to add book. Please try again.",
	BookAdded:         "Book added successfully!",
	DeleteFailed:      "Failed to delete book. Please try again.",
	BookDeleted:       "Book deleted successfully!",
	LogoutFailed:      "Failed to log out. Please try again.",
}

//go:embed locales/*.toml
var locales embed.FS

type Catalog struct {
	localizer *i18n.Localizer
}

// New builds a catalog for the given language tag. Unknown languages, and ids missing
// from a translation, fall back to English.
func New(lang string) (*Catalog, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.Glob(locales, "locales/*.toml")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if _, err := bundle.LoadMessageFileFS(locales, f); err != nil {
			return nil, fmt.Errorf("load %s: %w", path.Base(f), err)
		}
	}

	return &Catalog{localizer: i18n.NewLocalizer(bundle, lang)}, nil
}

// English returns the built-in catalog. It cannot fail.
func English() *Catalog {
	return &Catalog{localizer: i18n.NewLocalizer(i18n.NewBundle(language.English), "en")}
}

func (c *Catalog) Get(id ID) string {
	msg, err := c.localizer.Localize(&i18n.LocalizeConfig{
		DefaultMessage: &i18n.Message{ID: string(id), Other: defaults[id]},
	})
	if err != nil || msg == "" {
		return defaults[id]
	}
	return msg
}
