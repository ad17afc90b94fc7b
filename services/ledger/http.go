package ledgersvc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/shughuli/core"
	"github.com/trezcool/shughuli/core/activity"
)

// httpLedger talks to the campus points ledger over its REST API.
// GET  {base}/activities/{id}/distribution -> {"distributed": bool}
// POST {base}/activities/{id}/distribution -> credits the winners; 409 when
// the activity was already credited (treated as success, the flag holds).
type httpLedger struct {
	baseURL string
	token   string
	client  *http.Client
}

var _ activity.Ledger = (*httpLedger)(nil) // interface compliance check

func NewHTTPLedger(conf core.LedgerConfig) *httpLedger {
	return &httpLedger{
		baseURL: strings.TrimRight(conf.BaseURL, "/"),
		token:   conf.Token,
		client:  &http.Client{Timeout: conf.Timeout},
	}
}

func (l *httpLedger) Distributed(ctx context.Context, activityID string) (bool, error) {
	res, err := l.do(ctx, http.MethodGet, l.distributionURL(activityID), nil)
	if err != nil {
		return false, err
	}
	defer drainAndClose(res.Body)

	if res.StatusCode != http.StatusOK {
		return false, errors.Errorf("ledger: unexpected status %d checking distribution", res.StatusCode)
	}

	var body struct {
		Distributed bool `json:"distributed"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return false, errors.Wrap(err, "ledger: decoding distribution flag")
	}
	return body.Distributed, nil
}

func (l *httpLedger) Distribute(ctx context.Context, activityID string) error {
	res, err := l.do(ctx, http.MethodPost, l.distributionURL(activityID), nil)
	if err != nil {
		return err
	}
	defer drainAndClose(res.Body)

	switch res.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusConflict: // already credited; the flag holds
		return nil
	default:
		return errors.Errorf("ledger: unexpected status %d distributing points", res.StatusCode)
	}
}

func (l *httpLedger) distributionURL(activityID string) string {
	return fmt.Sprintf("%s/activities/%s/distribution", l.baseURL, activityID)
}

func (l *httpLedger) do(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, errors.Wrap(err, "ledger: creating request")
	}
	req.Header.Set("Accept", "application/json")
	if l.token != "" {
		req.Header.Set("Authorization", "Bearer "+l.token)
	}

	res, err := l.client.Do(req)
	return res, errors.Wrap(err, "ledger: calling "+method+" "+url)
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(ioutil.Discard, body)
	_ = body.Close()
}
