package headhunter

import (
	"errors"
	"net/url"
	"path"
	"strings"
)

const siteHost = "hh.ru"

var ErrInvalidLink = errors.New("not a hh.ru link")

// ResumeIDFromText finds a hh.ru resume link in text and returns its id.
func ResumeIDFromText(text string) (string, error) {
	return idFromText(text, "resume")
}

// VacancyIDFromText finds a hh.ru vacancy link in text and returns its id.
func VacancyIDFromText(text string) (string, error) {
	return idFromText(text, "vacancy")
}

func idFromText(text, kind string) (string, error) {
	marker := siteHost + "/" + kind + "/"

	for _, field := range strings.Fields(text) {
		if !strings.Contains(field, marker) {
			continue
		}
		return idFromLink(field, kind)
	}

	return "", ErrInvalidLink
}

func idFromLink(link, kind string) (string, error) {
	if !strings.Contains(link, "://") {
		link = "https://" + link
	}

	u, err := url.Parse(link)
	if err != nil {
		return "", ErrInvalidLink
	}

	host := u.Hostname()
	if host != siteHost && !strings.HasSuffix(host, "."+siteHost) {
		return "", ErrInvalidLink
	}

	prefix := "/" + kind + "/"
	if !strings.HasPrefix(u.Path, prefix) {
		return "", ErrInvalidLink
	}

	id := path.Base(strings.TrimRight(u.Path, "/"))
	if id == "" || id == kind || id == "." || id == "/" {
		return "", ErrInvalidLink
	}

	return id, nil
}
