package services

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/usergate/internal/common"
	"github.com/dmitrijs2005/usergate/internal/server/models"
)

const (
	minPasswordLen = 6
	minNameLen     = 2
)

func checkEmail(v *common.ValidationError, email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		v.Add("email", "is required")
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		v.Add("email", "must be a valid email address")
	}
}

func checkName(v *common.ValidationError, name string) {
	if utf8.RuneCountInString(strings.TrimSpace(name)) < minNameLen {
		v.Add("name", "must be at least 2 characters")
	}
}

func checkPassword(v *common.ValidationError, field, password string) {
	if utf8.RuneCountInString(password) < minPasswordLen {
		v.Add(field, "must be at least 6 characters")
	}
}

func checkRole(v *common.ValidationError, role models.Role) {
	if !role.Valid() {
		v.Add("role", "must be one of admin, user")
	}
}
