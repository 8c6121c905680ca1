package sl_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/storefront/internal/lib/sl"
)

func TestErr_ReturnsCorrectAttr(t *testing.T) {
	attr := sl.Err(errors.New("stock write failed"))

	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, slog.StringValue("stock write failed"), attr.Value)
}

func TestErr_NilError(t *testing.T) {
	attr := sl.Err(nil)

	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, "<nil>", attr.Value.String())
}

func TestOp(t *testing.T) {
	attr := sl.Op("services.order.Create")

	assert.Equal(t, "op", attr.Key)
	assert.Equal(t, "services.order.Create", attr.Value.String())
}
