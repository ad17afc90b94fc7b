package echoapi

import (
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shughuli/core"
	"github.com/trezcool/shughuli/core/activity"
	logsvc "github.com/trezcool/shughuli/services/logger"
)

func newHandlerContext() (echo.HTTPErrorHandler, echo.Context, *httptest.ResponseRecorder, *bool) {
	var signaled bool
	h := newAppHTTPErrorHandler(
		logsvc.NewStdLogger(log.New(os.Stderr, "TEST : ", log.LstdFlags)),
		func() { signaled = true },
	)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return h, e.NewContext(req, rec), rec, &signaled
}

// a lost database connection is reported as a 500 and triggers a graceful shutdown
func Test_appHTTPErrorHandler_shutdown(t *testing.T) {
	h, ctx, rec, signaled := newHandlerContext()

	h(errors.Wrap(core.NewShutdownError("database connection lost"), "querying activities"), ctx)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("code = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if !*signaled {
		t.Error("shutdown was not signaled")
	}
}

// a partially applied winner batch maps to 502 with the retry message
func Test_appHTTPErrorHandler_partialApply(t *testing.T) {
	h, ctx, rec, signaled := newHandlerContext()

	h(&activity.ApplyError{Completed: 2, Err: errors.New("boom")}, ctx)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("code = %d, want %d", rec.Code, http.StatusBadGateway)
	}
	if !strings.Contains(rec.Body.String(), "some changes may not have been saved") {
		t.Errorf("body = %s, want the partial-save warning", rec.Body.String())
	}
	if *signaled {
		t.Error("partial apply must not shut the server down")
	}
}
