package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
)

func TestObjectKind(t *testing.T) {
	assert.Equal(t, "receipts", objectKind("receipts/owner/bill.xlsx"))
	assert.Equal(t, "imports", objectKind("/imports/owner/sheet.xlsx"))
	assert.Equal(t, "other", objectKind("sheet.xlsx"))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(fmt.Errorf("head: %w", &types.NotFound{})))
	assert.True(t, isNotFound(&types.NoSuchKey{}))
	assert.False(t, isNotFound(errors.New("access denied")))
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "text/csv", contentTypeFor("a.csv", "text/csv"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("a.unknownext", ""))
}
