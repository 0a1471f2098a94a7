package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAttributes(t *testing.T) {
	attrs := parseAttributes("rack:a1, zone:us-east")
	assert.Equal(t, "a1", attrs["rack"])
	assert.Equal(t, "us-east", attrs["zone"])
}

func TestSplitNonEmpty(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitNonEmpty(" a ,b, "))
	assert.Nil(t, splitNonEmpty(""))
}
