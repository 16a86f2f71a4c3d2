package errs

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeSurvivesWrapping(t *testing.T) {
	err := ErrNotFound.WrapMsg("conversation", "id", "c1")
	assert.Equal(t, CodeNotFound, Code(err))
	assert.True(t, errors.Is(err, ErrNotFound))

	wrapped := WrapMsg(err, "outer layer")
	assert.Equal(t, CodeNotFound, Code(wrapped))
	assert.True(t, errors.Is(wrapped, ErrNotFound))
}

func TestForeignErrorMapsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, Code(errors.New("boom")))
}

func TestWithDetailLeavesTemplateUntouched(t *testing.T) {
	_ = ErrBadRequest.WithDetail("field missing")
	assert.Empty(t, ErrBadRequest.Detail)
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[int]error{
		http.StatusBadRequest:          ErrBadRequest.Wrap(),
		http.StatusUnauthorized:        ErrUnauthorized.Wrap(),
		http.StatusNotFound:            ErrNotFound.Wrap(),
		http.StatusConflict:            ErrConflict.Wrap(),
		http.StatusInternalServerError: ErrDeliveryPersist.Wrap(),
	}
	for want, err := range cases {
		assert.Equal(t, want, HTTPStatus(err))
	}
	// invalid-state is a client error, not a server fault
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrInvalidState.Wrap()))
}

func TestWrapMsgNilPassthrough(t *testing.T) {
	assert.NoError(t, WrapMsg(nil, "ignored"))
}
