package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/komodo-run/komodo-core/pkg/models"
)

func TestErrNotFoundMessage(t *testing.T) {
	err := ErrNotFound{Kind: models.KindDeployment, ID: "d1"}
	assert.Equal(t, "Deployment d1 not found", err.Error())
}
