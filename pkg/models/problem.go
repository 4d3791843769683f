// Package models holds wire types shared by the plugin HTTP handlers.
package models

// APIProblem is an RFC 7807 Problem Details body. Plugin handlers encode it
// directly and swagger annotations reference it for error responses.
type APIProblem struct {
	Type     string `json:"type" example:"https://startpage.dev/problems/theme-error"`
	Title    string `json:"title" example:"Bad Request"`
	Status   int    `json:"status" example:"400"`
	Detail   string `json:"detail,omitempty" example:"unknown header mode \"neon\""`
	Instance string `json:"instance,omitempty" example:"/api/v1/theme/header-mode/base"`
}
