// Package service holds the business rules of the API. Services take input
// structs, enforce ownership and existence checks, and return *models.AppError.
package service

import (
	"errors"
	"strings"
	"unicode/utf8"

	"agrisocial/internal/models"
	"agrisocial/internal/storage"
	"agrisocial/internal/validation"
)

// Upload is an image file received with a request.
type Upload struct {
	Filename string
	Content  []byte
}

// ImageStore persists uploads. *storage.Store implements it.
type ImageStore interface {
	Save(kind storage.Kind, filename string, content []byte) (string, error)
	Remove(url string)
}

var errNoImageStore = errors.New("image store not configured")

func saveUpload(store ImageStore, kind storage.Kind, up *Upload) (string, error) {
	if up == nil {
		return "", nil
	}
	if store == nil {
		return "", models.NewInternalError(errNoImageStore)
	}
	return store.Save(kind, up.Filename, up.Content)
}

func discardUpload(store ImageStore, url string) {
	if store == nil || url == "" {
		return
	}
	store.Remove(url)
}

// cleanText sanitizes free text before it is stored.
func cleanText(s string) string {
	return validation.SanitizeText(s)
}

func tooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}

func validationErr(err error) error {
	msg := err.Error()
	if msg != "" {
		msg = strings.ToUpper(msg[:1]) + msg[1:]
	}
	return models.NewValidationError(msg)
}
