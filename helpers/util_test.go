package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetSplitPart(t *testing.T) {
	part, err := GetSplitPart("2025/08/01 21:03", " ", 0)
	assert.NoError(t, err)
	assert.Equal(t, "2025/08/01", part)

	_, err = GetSplitPart("2025/08/01", " ", 1)
	assert.Error(t, err)
}
