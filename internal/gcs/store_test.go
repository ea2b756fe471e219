package gcs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURI(t *testing.T) {
	s := &Store{bucket: "uploads"}
	assert.Equal(t, "gs://uploads/users/u1/a.pdf", s.URI("users/u1/a.pdf"))
}
