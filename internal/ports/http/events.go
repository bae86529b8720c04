package http

import (
	"flash-alliance/internal/model"
	"net/http"
	"strings"
)

func (ser server) getEvents(w http.ResponseWriter, r *http.Request) {
	var source model.Address
	if raw := strings.TrimSpace(r.URL.Query().Get("source")); raw != "" {
		var err error
		source = parseAddress(&err, "source", raw)
		if err != nil {
			ser.badRequest(w, err)
			return
		}
	}
	ser.writeEvents(w, r, source)
}

func (ser server) writeEvents(w http.ResponseWriter, r *http.Request, source model.Address) {
	events, err := ser.app.Events(r.Context(), source)
	if err != nil {
		ser.serverError(w, "getting the events failed: "+err.Error())
		return
	}
	ser.ok(w, events)
}
