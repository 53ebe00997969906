package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildRequest(t *testing.T) {
	req := BuildRequest([]string{"first", "second", "third"})

	assert.Equal(t, "Messages:\n1. first\n2. second\n3. third", req.UserPrompt)
	assert.Contains(t, req.SystemPrompt, "do not use # for headings")
	assert.Equal(t, req, BuildRequest([]string{"first", "second", "third"}))
}
