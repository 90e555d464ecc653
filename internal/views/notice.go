// Package views turns resource store state into the list and edit pages of
// the admin, and carries out the page actions.
package views

import (
	"strings"

	"github.com/starford/catadmin/internal/catalog"
)

// Notice kinds.
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
)

// Notice is a flash message shown after an action.
type Notice struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

func title(def catalog.Definition) string {
	if def.Singular == "" {
		return ""
	}
	return strings.ToUpper(def.Singular[:1]) + def.Singular[1:]
}

func savedNotice(def catalog.Definition) Notice {
	return Notice{Kind: NoticeSuccess, Text: title(def) + " successfully saved!"}
}

func saveFailedNotice(def catalog.Definition) Notice {
	return Notice{Kind: NoticeError, Text: "Errors occurred while " + def.Singular + " saving!"}
}

func removedNotice(def catalog.Definition) Notice {
	return Notice{Kind: NoticeSuccess, Text: title(def) + " successfully removed"}
}

func removeFailedNotice(def catalog.Definition) Notice {
	return Notice{Kind: NoticeError, Text: "Errors occurred while " + def.Singular + " removing!"}
}
