package auth

import (
	"context"
	"html/template"
	"net/http"
	"net/url"

	"github.com/repolens/cli/logging"
	"go.uber.org/zap"
)

// Callback is what the provider's redirect carries back.
type Callback struct {
	Code        string
	State       string
	Error       string
	Description string
}

func ParseCallback(q url.Values) Callback {
	return Callback{
		Code:        q.Get("code"),
		State:       q.Get("state"),
		Error:       q.Get("error"),
		Description: q.Get("error_description"),
	}
}

// HandleCallback completes or fails the attempt named by cb.State and returns
// the outcome the detached context reports to its opener.
func (c *Coordinator) HandleCallback(ctx context.Context, cb Callback) Outcome {
	if cb.Error != "" {
		return failure(c.Fail(ctx, cb.State, cb.Error, cb.Description))
	}
	identity, err := c.Complete(ctx, cb.Code, cb.State)
	if err != nil {
		return failure(err)
	}
	return success(*identity)
}

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>repolens</title></head>
<body>
<p>{{if eq .Outcome.Type "AUTH_SUCCESS"}}Connected{{with .Outcome.Identity}} as {{.Handle}}{{end}}.{{else}}Authorization failed: {{.Outcome.Reason}}.{{end}}</p>
<p>You can close this window.</p>
<script>
(function () {
  var message = {type: {{.Outcome.Type}}{{if .Outcome.Reason}}, error: {{.Outcome.Reason}}{{end}}};
  if (window.opener) {
    window.opener.postMessage(message, {{.Origin}});
    window.close();
  }
})();
</script>
</body>
</html>
`))

// CallbackHandler serves the redirect target. The page posts AUTH_SUCCESS or
// AUTH_ERROR to window.opener at origin and closes itself.
func CallbackHandler(c *Coordinator, origin string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		outcome := c.HandleCallback(r.Context(), ParseCallback(r.URL.Query()))

		status := http.StatusOK
		if outcome.Type == AuthError {
			status = http.StatusBadRequest
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(status)
		err := callbackPage.Execute(w, struct {
			Outcome Outcome
			Origin  string
		}{outcome, origin})
		if err != nil {
			logging.WithContext(r.Context()).Error("render callback page", zap.Error(err))
		}
	})
}
