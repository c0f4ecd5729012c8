// Package memory implements the memory record lifecycle: listing, reading,
// creating, updating and deleting journal entries along with cleanup of
// cover assets orphaned by an update.
package memory

import (
	"strings"
	"time"
	"unicode/utf8"
)

// CoverType is the file extension of a memory's cover asset.
type CoverType string

const (
	CoverGIF  CoverType = "gif"
	CoverJPG  CoverType = "jpg"
	CoverJPEG CoverType = "jpeg"
	CoverPNG  CoverType = "png"
	CoverMPG  CoverType = "mpg"
	CoverMP2  CoverType = "mp2"
	CoverMPEG CoverType = "mpeg"
	CoverMPE  CoverType = "mpe"
	CoverMPV  CoverType = "mpv"
	CoverMP4  CoverType = "mp4"
)

// CoverTypes lists every accepted cover type in display order.
var CoverTypes = []CoverType{
	CoverGIF, CoverJPG, CoverJPEG, CoverPNG,
	CoverMPG, CoverMP2, CoverMPEG, CoverMPE, CoverMPV, CoverMP4,
}

// Valid reports whether c is one of CoverTypes.
func (c CoverType) Valid() bool {
	for _, t := range CoverTypes {
		if c == t {
			return true
		}
	}
	return false
}

// ParseCoverType returns the CoverType named by s. Matching is exact.
func ParseCoverType(s string) (CoverType, bool) {
	c := CoverType(s)
	return c, c.Valid()
}

func coverTypeList() string {
	names := make([]string, len(CoverTypes))
	for i, t := range CoverTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// User is the owner of a memory as known from the verified token.
type User struct {
	ID        string `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
}

// Record is a single memory.
type Record struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CoverURL  string    `json:"coverUrl"`
	CoverType CoverType `json:"coverType"`
	IsPublic  bool      `json:"isPublic"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`

	// User is only populated by reads that load the owner.
	User *User `json:"user,omitempty"`
}

// Summary is the list view of a memory.
type Summary struct {
	ID        string    `json:"id"`
	CoverURL  string    `json:"coverUrl"`
	CoverType CoverType `json:"coverType"`
	Excerpt   string    `json:"excerpt"`
	CreatedAt time.Time `json:"createdAt"`
}

// ExcerptLength is the number of characters of content kept in an excerpt.
const ExcerptLength = 115

// Excerpt shortens content for list views. Content longer than
// ExcerptLength characters is cut and suffixed with "...".
func Excerpt(content string) string {
	if utf8.RuneCountInString(content) <= ExcerptLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:ExcerptLength]) + "..."
}

func summarize(r Record) Summary {
	return Summary{
		ID:        r.ID,
		CoverURL:  r.CoverURL,
		CoverType: r.CoverType,
		Excerpt:   Excerpt(r.Content),
		CreatedAt: r.CreatedAt,
	}
}

// CoverFileName returns the trailing path segment of a cover URL, which is
// the asset's name in the file store. ok is false when the URL has no
// segment after its final "/".
func CoverFileName(coverURL string) (name string, ok bool) {
	i := strings.LastIndex(coverURL, "/")
	if i < 0 || i == len(coverURL)-1 {
		return "", false
	}
	return coverURL[i+1:], true
}
