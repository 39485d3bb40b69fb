package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategory(t *testing.T) {
	assert.Equal(t, CategoryCompliance, EventCooperativeDeleted.Category())
	assert.Equal(t, CategoryCompliance, EventMemberPromoted.Category())
	assert.Equal(t, CategoryOperations, EventMemberUpdated.Category())
	assert.Equal(t, CategoryOperations, AuditEvent("something_new").Category())
}
