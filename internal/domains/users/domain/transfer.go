package domain

import "io"

// Avatar is an image uploaded for a user.
type Avatar struct {
	Name        string
	ContentType string
	Content     io.Reader
}
