package httperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/pingmatch/ping/internal/httperr"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{httperr.Validation("bad input"), http.StatusBadRequest},
		{httperr.ErrUnauthorized, http.StatusUnauthorized},
		{httperr.ErrForbidden, http.StatusForbidden},
		{httperr.Forbidden("quota exhausted"), http.StatusForbidden},
		{httperr.ErrNotFound, http.StatusNotFound},
		{gorm.ErrRecordNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", httperr.ErrForbidden), http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, httperr.Status(c.err), "error %v", c.err)
	}
}

func TestMessageHidesInternals(t *testing.T) {
	assert.Equal(t, "bad input", httperr.Message(httperr.Validation("bad input")))
	assert.Equal(t, "quota exhausted", httperr.Message(httperr.Forbidden("quota exhausted")))
	assert.Equal(t, "internal server error", httperr.Message(errors.New("dsn=root:root@tcp(...)")))
}

func TestWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	httperr.Write(rec, httperr.Validation("direction must be left or right"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"direction must be left or right"}`, rec.Body.String())
}
