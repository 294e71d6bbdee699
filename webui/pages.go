package webui

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"ruserwation/core"
	"ruserwation/reservation"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages holds every template, parsed once at init.
var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// IndexPageData feeds the public landing page.
type IndexPageData struct {
	Title      string
	Restaurant core.Restaurant
	Poster     string
	RefCheck   string
}

// LoginPageData feeds the admin login form.
type LoginPageData struct {
	Title string
	Error string
}

// Link is a hyperlink shown on a message page.
type Link struct {
	Href  string
	Label string
}

// MessagePageData feeds the small status pages ("Logged out" and friends).
type MessagePageData struct {
	Title   string
	Heading string
	Message string
	Links   []Link
}

// DashboardPageData feeds the admin reservation list.
type DashboardPageData struct {
	Title        string
	Username     string
	Reservations []*reservation.Reservation
}

// render executes a template into a buffer first so a template error never
// leaves a half-written 200 response.
func render(w http.ResponseWriter, status int, name string, data interface{}) error {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// RenderLoginPage writes the login form with an optional error message.
func RenderLoginPage(w http.ResponseWriter, status int, errMsg string) error {
	return render(w, status, "login", LoginPageData{Title: "Admin login", Error: errMsg})
}

// RenderMessagePage writes a heading, a message and optional links.
func RenderMessagePage(w http.ResponseWriter, status int, heading, message string, links ...Link) error {
	return render(w, status, "message", MessagePageData{
		Title:   heading,
		Heading: heading,
		Message: message,
		Links:   links,
	})
}

// RenderIndexPage writes the public landing page.
func RenderIndexPage(w http.ResponseWriter, data IndexPageData) error {
	if data.Title == "" {
		data.Title = data.Restaurant.Name
	}
	return render(w, http.StatusOK, "index", data)
}

// RenderDashboardPage writes the admin reservation list.
func RenderDashboardPage(w http.ResponseWriter, data DashboardPageData) error {
	if data.Title == "" {
		data.Title = "Reservations"
	}
	return render(w, http.StatusOK, "dashboard", data)
}
