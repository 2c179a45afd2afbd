package server

import (
	"html/template"
	"net/http"
)

// The callback pages are the only HTML this service renders. Both are
// terminal: the success page closes its own window after a short delay.

var callbackSuccessTmpl = template.Must(template.New("callback_success").Parse(`<!DOCTYPE html>
<html>
<body>
	<h2>Google Drive Connected Successfully!</h2>
	<p>You can close this window and return to the app.</p>
	<script>
		setTimeout(() => window.close(), 2000);
	</script>
</body>
</html>
`))

var callbackErrorTmpl = template.Must(template.New("callback_error").Parse(`<!DOCTYPE html>
<html>
<body>
	<h2>Authorization Failed</h2>
	<p>{{.Message}}</p>
</body>
</html>
`))

func renderCallbackSuccess(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = callbackSuccessTmpl.Execute(w, nil)
}

func renderCallbackError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	_ = callbackErrorTmpl.Execute(w, struct{ Message string }{Message: message})
}
