package microwire

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameBits(t *testing.T) {
	assert.Equal(t, 9, Frame{Len: 9, Unit: Bits}.Bits())
	assert.Equal(t, 16, Frame{Len: 2, Unit: Bytes}.Bits())
	assert.Equal(t, "bytes", Bytes.String())
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, StatusOK, StatusOf(nil))
	assert.Equal(t, StatusTimeout, StatusOf(StatusTimeout))
	assert.Equal(t, StatusIOError, StatusOf(fmt.Errorf("spi tx: %w", StatusIOError)))
	assert.Equal(t, StatusOtherError, StatusOf(errors.New("boom")))
	assert.Equal(t, "microwire: device not found", StatusDeviceNotFound.Error())
	assert.Equal(t, "Status(99)", Status(99).String())
}
