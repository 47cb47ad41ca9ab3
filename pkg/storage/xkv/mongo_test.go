package xkv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMongo_NilCollection(t *testing.T) {
	_, err := NewMongo(nil)
	assert.ErrorIs(t, err, ErrNilClient)
}
