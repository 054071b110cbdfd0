package handler

import (
	"errors"
	"net/http"

	"github.com/esgai/esgsearch/internal/models"
)

// Header names the search backend uses for user credentials. Callers of this
// API pass them the same way.
const (
	HeaderEmail    = "email"
	HeaderPassword = "password"
)

var errMissingCredentials = errors.New("email and password headers are required")

func credentialsFromRequest(r *http.Request) (models.Credentials, error) {
	creds := models.Credentials{
		Email:    r.Header.Get(HeaderEmail),
		Password: r.Header.Get(HeaderPassword),
	}
	if creds.Email == "" || creds.Password == "" {
		return models.Credentials{}, errMissingCredentials
	}
	return creds, nil
}
